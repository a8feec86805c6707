package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/popeskul/insdr-dispatch/internal/models"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	t.Run("argument", func(t *testing.T) {
		out, err := execute(t, "", "hash-password", "s3cret")
		require.NoError(t, err)

		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	})

	t.Run("stdin", func(t *testing.T) {
		out, err := execute(t, "from-stdin\n", "hash-password")
		require.NoError(t, err)

		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
	})

	t.Run("empty stdin", func(t *testing.T) {
		_, err := execute(t, "", "hash-password")
		assert.Error(t, err)
	})
}

func TestSend_RequiresActor(t *testing.T) {
	_, err := execute(t, "", "send", "--manual", "+33611111111")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actor")
}

func TestCollectRecipients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.csv")
	require.NoError(t, os.WriteFile(path, []byte("phone_number\n+33611111111\n\n0611111111\n"), 0o600))

	recipients, err := collectRecipients(path, "+33622222222")
	require.NoError(t, err)
	assert.Equal(t, []string{"+33611111111", "0611111111", "+33622222222"}, recipients)

	_, err = collectRecipients("", " , ")
	assert.Error(t, err)

	_, err = collectRecipients(filepath.Join(t.TempDir(), "absent.csv"), "")
	assert.Error(t, err)
}

func TestPrintBatchResult(t *testing.T) {
	out := &bytes.Buffer{}
	printBatchResult(out, &models.BatchResult{
		Message: "Please fill the form: http://x/y",
		Outcomes: []models.SendOutcome{
			{Recipient: "+33611111111", Status: models.StatusSent},
			{Recipient: "+33622222222", Status: "failed: unreachable", Error: "unreachable"},
		},
		Rejected: []string{"0611111111"},
		Warnings: []string{"+33611111111: failed to write send log: timeout"},
	})

	text := out.String()
	assert.Contains(t, text, "OK    +33611111111")
	assert.Contains(t, text, "FAIL  +33622222222  unreachable")
	assert.Contains(t, text, "SKIP  0611111111")
	assert.Contains(t, text, "WARN  +33611111111")
	assert.Contains(t, text, "Sent: 1  Failed: 1  Rejected: 1")
}
