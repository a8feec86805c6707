package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/api"
	authmocks "github.com/popeskul/insdr-dispatch/internal/auth/mocks"
	cachemocks "github.com/popeskul/insdr-dispatch/internal/cache/mocks"
	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/events"
	eventmocks "github.com/popeskul/insdr-dispatch/internal/events/mocks"
	"github.com/popeskul/insdr-dispatch/internal/models"
	"github.com/popeskul/insdr-dispatch/internal/provider/sms"
	smsmocks "github.com/popeskul/insdr-dispatch/internal/provider/sms/mocks"
	"github.com/popeskul/insdr-dispatch/internal/repository/mocks"
	"github.com/popeskul/insdr-dispatch/internal/service"
)

const testActor = "user1"

func testConfig() *config.Config {
	return &config.Config{
		SMS: config.SMSConfig{
			From: "+33700000000",
			CircuitBreaker: config.CircuitBreakerConfig{
				MaxRequests:      3,
				Interval:         60,
				Timeout:          60,
				FailureRatio:     0.6,
				ConsecutiveFails: 5,
			},
		},
		Dispatch: config.DispatchConfig{
			CountryPrefix:     "+33",
			Template:          "Please fill the form: {url}",
			ReferenceURL:      "http://default/form",
			AdminTotalCredits: 100,
			MaxBatchSize:      100,
		},
		Certification: config.CertificationConfig{
			FilesPerRequest:       12,
			SessionRefreshMinutes: 20,
			CircuitBreaker: config.CircuitBreakerConfig{
				MaxRequests:      1,
				Interval:         60,
				Timeout:          60,
				FailureRatio:     0.5,
				ConsecutiveFails: 3,
			},
		},
	}
}

type dispatchFixture struct {
	svc       service.DispatchService
	logs      *mocks.MockSendLogRepository
	credits   *mocks.MockCreditRepository
	sender    *smsmocks.MockSender
	index     *cachemocks.MockMessageIndex
	publisher *eventmocks.MockPublisher
	auth      *authmocks.MockAuthenticator
	created   []*models.SendLog
}

func newDispatchFixture(t *testing.T, cfg *config.Config) *dispatchFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockRepository(ctrl)
	f := &dispatchFixture{
		logs:      mocks.NewMockSendLogRepository(ctrl),
		credits:   mocks.NewMockCreditRepository(ctrl),
		sender:    smsmocks.NewMockSender(ctrl),
		index:     cachemocks.NewMockMessageIndex(ctrl),
		publisher: eventmocks.NewMockPublisher(ctrl),
		auth:      authmocks.NewMockAuthenticator(ctrl),
	}
	repo.EXPECT().SendLog().Return(f.logs).AnyTimes()
	repo.EXPECT().Credit().Return(f.credits).AnyTimes()

	f.svc = service.NewDispatchService(cfg, repo, f.sender, f.index, f.publisher, f.auth, zap.NewNop())
	return f
}

// expectLogs records every created row and assigns sequential ids.
func (f *dispatchFixture) expectLogs(n int, err error) {
	f.logs.EXPECT().Create(gomock.Any(), gomock.Any()).Times(n).DoAndReturn(
		func(_ context.Context, entry *models.SendLog) error {
			f.created = append(f.created, entry)
			if err != nil {
				return err
			}
			entry.ID = int64(len(f.created))
			entry.CreatedAt = time.Now()
			return nil
		})
}

func TestDispatchService_SendBatch_Success(t *testing.T) {
	f := newDispatchFixture(t, testConfig())

	gomock.InOrder(
		f.sender.EXPECT().Send(gomock.Any(), sms.Message{
			From: "+33700000000",
			To:   "+33611111111",
			Body: "Please fill the form: http://x/y",
		}).Return(&sms.Result{MessageID: "SM1", Status: "queued"}, nil),
		f.sender.EXPECT().Send(gomock.Any(), sms.Message{
			From: "+33700000000",
			To:   "+33622222222",
			Body: "Please fill the form: http://x/y",
		}).Return(&sms.Result{MessageID: "SM2", Status: "queued"}, nil),
	)
	f.expectLogs(2, nil)
	f.index.EXPECT().Remember(gomock.Any(), "SM1", int64(1)).Return(nil)
	f.index.EXPECT().Remember(gomock.Any(), "SM2", int64(2)).Return(nil)
	f.publisher.EXPECT().PublishBatchCompleted(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event events.BatchCompleted) error {
			assert.Equal(t, testActor, event.Actor)
			assert.Equal(t, "http://x/y", event.URL)
			assert.Equal(t, 2, event.Sent)
			assert.Equal(t, 0, event.Failed)
			assert.Equal(t, 1, event.Rejected)
			return nil
		})

	result, err := f.svc.SendBatch(context.Background(), service.BatchRequest{
		Actor:        testActor,
		Recipients:   []string{"+33611111111", "0611111111", "+33622222222"},
		ReferenceURL: "http://x/y",
	})
	require.NoError(t, err)

	assert.Equal(t, "Please fill the form: http://x/y", result.Message)
	assert.Equal(t, []string{"0611111111"}, result.Rejected)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, models.SendOutcome{Recipient: "+33611111111", Status: "sent", ProviderMessageID: "SM1", LogID: 1}, result.Outcomes[0])
	assert.Equal(t, models.SendOutcome{Recipient: "+33622222222", Status: "sent", ProviderMessageID: "SM2", LogID: 2}, result.Outcomes[1])

	require.Len(t, f.created, 2)
	for i, entry := range f.created {
		assert.Equal(t, testActor, entry.Actor)
		assert.Equal(t, result.Outcomes[i].Recipient, entry.Recipient)
		assert.Equal(t, "Please fill the form: http://x/y", entry.Message)
		assert.Equal(t, "http://x/y", entry.URL)
		assert.Equal(t, "sent", entry.Status)
	}
}

func TestDispatchService_SendBatch_ProviderFailureContinues(t *testing.T) {
	f := newDispatchFixture(t, testConfig())

	rejection := &sms.ProviderError{Provider: "twilio", StatusCode: 400, Code: 21211, Message: "Invalid 'To' Phone Number"}
	gomock.InOrder(
		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil, rejection),
		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(&sms.Result{MessageID: "SM2"}, nil),
		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset")),
	)
	f.expectLogs(3, nil)
	f.index.EXPECT().Remember(gomock.Any(), "SM2", int64(2)).Return(nil)
	f.publisher.EXPECT().PublishBatchCompleted(gomock.Any(), gomock.Any()).Return(nil)

	result, err := f.svc.SendBatch(context.Background(), service.BatchRequest{
		Actor:        testActor,
		Recipients:   []string{"+33600000001", "+33600000002", "+33600000003"},
		ReferenceURL: "http://x/y",
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, "failed: twilio: 21211 Invalid 'To' Phone Number", result.Outcomes[0].Status)
	assert.Equal(t, "twilio: 21211 Invalid 'To' Phone Number", result.Outcomes[0].Error)
	assert.Equal(t, "sent", result.Outcomes[1].Status)
	assert.Equal(t, "failed: connection reset", result.Outcomes[2].Status)
	assert.Equal(t, 1, result.SentCount())
	assert.Equal(t, 2, result.FailedCount())

	require.Len(t, f.created, 3)
	assert.Equal(t, "failed: twilio: 21211 Invalid 'To' Phone Number", f.created[0].Status)
	assert.Equal(t, "sent", f.created[1].Status)
	assert.Equal(t, "failed: connection reset", f.created[2].Status)
}

func TestDispatchService_SendBatch_BreakerTripDoesNotSkipRecipients(t *testing.T) {
	f := newDispatchFixture(t, testConfig())

	recipients := make([]string, 10)
	for i := range recipients {
		recipients[i] = fmt.Sprintf("+3360000000%d", i)
	}

	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Times(len(recipients)).Return(nil, errors.New("provider 503 outage"))
	f.expectLogs(len(recipients), nil)
	f.publisher.EXPECT().PublishBatchCompleted(gomock.Any(), gomock.Any()).Return(nil)

	result, err := f.svc.SendBatch(context.Background(), service.BatchRequest{
		Actor:      testActor,
		Recipients: recipients,
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, len(recipients))
	require.Len(t, f.created, len(recipients))
	for i, entry := range f.created {
		assert.Equal(t, recipients[i], entry.Recipient)
		assert.Equal(t, "failed: provider 503 outage", entry.Status)
		assert.Equal(t, "failed: provider 503 outage", result.Outcomes[i].Status)
	}

	state, _, _ := f.svc.GetCircuitBreakerStatus()
	assert.Equal(t, api.Open, state)

	// The next batch is refused before anything is sent or logged.
	result, err = f.svc.SendBatch(context.Background(), service.BatchRequest{
		Actor:      testActor,
		Recipients: []string{"+33611111111"},
	})
	assert.Nil(t, result)
	require.ErrorIs(t, err, service.ErrServiceUnavailable)
	assert.Len(t, f.created, len(recipients))
}

func TestDispatchService_SendBatch_Rejected(t *testing.T) {
	tests := []struct {
		name         string
		mutateConfig func(*config.Config)
		setupMocks   func(*dispatchFixture)
		req          service.BatchRequest
		check        func(*testing.T, error)
	}{
		{
			name: "no valid recipients",
			req: service.BatchRequest{
				Actor:      testActor,
				Recipients: []string{"0611111111", "+4477000000"},
			},
			check: func(t *testing.T, err error) {
				var validationErr *service.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, []string{"0611111111", "+4477000000"}, validationErr.Rejected)
				assert.ErrorIs(t, err, service.ErrNoValidRecipients)
			},
		},
		{
			name: "empty batch",
			req:  service.BatchRequest{Actor: testActor},
			check: func(t *testing.T, err error) {
				var validationErr *service.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Empty(t, validationErr.Rejected)
			},
		},
		{
			name: "missing actor",
			req:  service.BatchRequest{Recipients: []string{"+33611111111"}},
			check: func(t *testing.T, err error) {
				var validationErr *service.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "actor is required", validationErr.Error())
			},
		},
		{
			name: "template without placeholder",
			req: service.BatchRequest{
				Actor:      testActor,
				Recipients: []string{"+33611111111"},
				Template:   "Hello",
			},
			check: func(t *testing.T, err error) {
				var validationErr *service.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Contains(t, validationErr.Error(), "{url}")
			},
		},
		{
			name: "batch above size limit",
			mutateConfig: func(cfg *config.Config) {
				cfg.Dispatch.MaxBatchSize = 1
			},
			req: service.BatchRequest{
				Actor:      testActor,
				Recipients: []string{"+33611111111", "+33622222222"},
			},
			check: func(t *testing.T, err error) {
				var validationErr *service.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "batch of 2 recipients exceeds the limit of 1", validationErr.Error())
			},
		},
		{
			name: "insufficient credits",
			mutateConfig: func(cfg *config.Config) {
				cfg.Dispatch.CreditsEnabled = true
			},
			setupMocks: func(f *dispatchFixture) {
				f.credits.EXPECT().Get(gomock.Any(), testActor).Return(1, nil)
			},
			req: service.BatchRequest{
				Actor:      testActor,
				Recipients: []string{"+33611111111", "0611111111", "+33622222222"},
			},
			check: func(t *testing.T, err error) {
				var creditErr *service.InsufficientCreditError
				require.ErrorAs(t, err, &creditErr)
				assert.Equal(t, 2, creditErr.Required)
				assert.Equal(t, 1, creditErr.Available)
			},
		},
		{
			name: "credit store unavailable",
			mutateConfig: func(cfg *config.Config) {
				cfg.Dispatch.CreditsEnabled = true
			},
			setupMocks: func(f *dispatchFixture) {
				f.credits.EXPECT().Get(gomock.Any(), testActor).Return(0, errors.New("connection refused"))
			},
			req: service.BatchRequest{
				Actor:      testActor,
				Recipients: []string{"+33611111111"},
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to read credit balance")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutateConfig != nil {
				tt.mutateConfig(cfg)
			}
			// No sender, log or publisher expectations: any call fails the test.
			f := newDispatchFixture(t, cfg)
			if tt.setupMocks != nil {
				tt.setupMocks(f)
			}

			result, err := f.svc.SendBatch(context.Background(), tt.req)
			assert.Nil(t, result)
			tt.check(t, err)
		})
	}
}

func TestDispatchService_SendBatch_Credits(t *testing.T) {
	cfg := testConfig()
	cfg.Dispatch.CreditsEnabled = true
	f := newDispatchFixture(t, cfg)

	f.credits.EXPECT().Get(gomock.Any(), testActor).Return(2, nil)
	gomock.InOrder(
		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(&sms.Result{MessageID: "SM1"}, nil),
		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil, errors.New("provider down")),
	)
	f.expectLogs(2, nil)
	f.index.EXPECT().Remember(gomock.Any(), "SM1", int64(1)).Return(nil)
	// Only the accepted message is charged.
	f.credits.EXPECT().Decrement(gomock.Any(), testActor).Return(nil).Times(1)
	f.publisher.EXPECT().PublishBatchCompleted(gomock.Any(), gomock.Any()).Return(nil)

	result, err := f.svc.SendBatch(context.Background(), service.BatchRequest{
		Actor:      testActor,
		Recipients: []string{"+33611111111", "+33622222222"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SentCount())
	assert.Equal(t, "http://default/form", result.URL)
	assert.Empty(t, result.Warnings)
}

func TestDispatchService_SendBatch_StoreFailuresAreWarnings(t *testing.T) {
	cfg := testConfig()
	cfg.Dispatch.CreditsEnabled = true
	f := newDispatchFixture(t, cfg)

	f.credits.EXPECT().Get(gomock.Any(), testActor).Return(10, nil)
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(&sms.Result{MessageID: "SM1"}, nil).Times(2)
	gomock.InOrder(
		f.logs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
		f.logs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, entry *models.SendLog) error {
			entry.ID = 7
			return nil
		}),
	)
	gomock.InOrder(
		f.credits.EXPECT().Decrement(gomock.Any(), testActor).Return(nil),
		f.credits.EXPECT().Decrement(gomock.Any(), testActor).Return(errors.New("no credit left")),
	)
	f.index.EXPECT().Remember(gomock.Any(), "SM1", int64(7)).Return(errors.New("redis down"))
	f.publisher.EXPECT().PublishBatchCompleted(gomock.Any(), gomock.Any()).Return(errors.New("nats down"))

	result, err := f.svc.SendBatch(context.Background(), service.BatchRequest{
		Actor:      testActor,
		Recipients: []string{"+33611111111", "+33622222222"},
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "sent", result.Outcomes[0].Status)
	assert.Equal(t, "disk full", result.Outcomes[0].LogError)
	assert.Zero(t, result.Outcomes[0].LogID)
	assert.Equal(t, "sent", result.Outcomes[1].Status)
	assert.Equal(t, int64(7), result.Outcomes[1].LogID)

	assert.Equal(t, []string{
		"+33611111111: failed to write send log: disk full",
		"+33622222222: failed to decrement credit: no credit left",
	}, result.Warnings)
	assert.Equal(t, 2, result.SentCount())
}

func TestDispatchService_SendBatch_IgnoresCancellation(t *testing.T) {
	f := newDispatchFixture(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())

	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Times(3).DoAndReturn(
		func(ctx context.Context, msg sms.Message) (*sms.Result, error) {
			// Caller goes away after the first message.
			cancel()
			assert.NoError(t, ctx.Err())
			return &sms.Result{MessageID: "SM-" + msg.To}, nil
		})
	f.expectLogs(3, nil)
	f.index.EXPECT().Remember(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
	f.publisher.EXPECT().PublishBatchCompleted(gomock.Any(), gomock.Any()).Return(nil)

	result, err := f.svc.SendBatch(ctx, service.BatchRequest{
		Actor:      testActor,
		Recipients: []string{"+33600000001", "+33600000002", "+33600000003"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.SentCount())
}

func TestDispatchService_SendBatch_Repeatable(t *testing.T) {
	f := newDispatchFixture(t, testConfig())

	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(&sms.Result{MessageID: "SM1"}, nil).Times(2)
	f.expectLogs(2, nil)
	f.index.EXPECT().Remember(gomock.Any(), "SM1", gomock.Any()).Return(nil).Times(2)
	f.publisher.EXPECT().PublishBatchCompleted(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	req := service.BatchRequest{Actor: testActor, Recipients: []string{"+33611111111"}}
	for i := 0; i < 2; i++ {
		_, err := f.svc.SendBatch(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Len(t, f.created, 2)
}

func TestDispatchService_GetHistory(t *testing.T) {
	now := time.Now()
	rows := []*models.SendLog{
		{ID: 2, Actor: testActor, Recipient: "+33622222222", Message: "m", URL: "u", Status: "sent", CreatedAt: now},
		{ID: 1, Actor: testActor, Recipient: "+33611111111", Message: "m", URL: "u", Status: "failed: boom", CreatedAt: now.Add(-time.Minute)},
	}

	tests := []struct {
		name           string
		actor          string
		isAdmin        bool
		page           int
		limit          int
		expectedFilter models.LogFilter
		total          int64
		expectedPages  int
	}{
		{
			name:           "user sees own rows",
			actor:          testActor,
			page:           1,
			limit:          2,
			expectedFilter: models.LogFilter{Actor: testActor, Offset: 0, Limit: 2},
			total:          3,
			expectedPages:  2,
		},
		{
			name:           "admin sees every row",
			actor:          "admin",
			isAdmin:        true,
			page:           3,
			limit:          10,
			expectedFilter: models.LogFilter{Actor: "", Offset: 20, Limit: 10},
			total:          20,
			expectedPages:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture(t, testConfig())

			f.auth.EXPECT().IsAdmin(tt.actor).Return(tt.isAdmin)
			f.logs.EXPECT().List(gomock.Any(), tt.expectedFilter).Return(rows, nil)
			f.logs.EXPECT().Count(gomock.Any(), tt.expectedFilter.Actor).Return(tt.total, nil)

			resp, err := f.svc.GetHistory(context.Background(), tt.actor, tt.page, tt.limit)
			require.NoError(t, err)

			require.Len(t, resp.Logs, 2)
			assert.Equal(t, int64(2), resp.Logs[0].Id)
			assert.Equal(t, "failed: boom", resp.Logs[1].Status)
			assert.Equal(t, api.Pagination{
				CurrentPage:  tt.page,
				TotalPages:   tt.expectedPages,
				TotalItems:   int(tt.total),
				ItemsPerPage: tt.limit,
			}, resp.Pagination)
		})
	}
}

func TestDispatchService_GetHistory_Failure(t *testing.T) {
	t.Run("invalid pagination", func(t *testing.T) {
		f := newDispatchFixture(t, testConfig())

		_, err := f.svc.GetHistory(context.Background(), testActor, 0, 20)
		var validationErr *service.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("store error", func(t *testing.T) {
		f := newDispatchFixture(t, testConfig())
		f.auth.EXPECT().IsAdmin(testActor).Return(false)
		f.logs.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("database error"))

		_, err := f.svc.GetHistory(context.Background(), testActor, 1, 20)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list send logs")
	})
}
