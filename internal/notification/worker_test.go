package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fleet-timesheet-backend/internal/kv"
	"fleet-timesheet-backend/internal/model"
	"fleet-timesheet-backend/internal/store"
	"fleet-timesheet-backend/internal/testutil"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func ptr[T any](v T) *T { return &v }

type fleet struct {
	store   *store.Store
	admin   model.Operator
	machine model.Machine
}

// newFleet stores an active admin, a backhoe at 512 h and a pending service
// due at nextDue.
func newFleet(t *testing.T, nextDue float64) fleet {
	t.Helper()
	ctx := context.Background()
	s := store.New(kv.NewMemory(), testutil.FixedClock(), testutil.NewStubIDGenerator(), zap.NewNop())

	admin, err := s.CreateOperator(ctx, model.Operator{Name: "Admin", PIN: "1234", Role: model.RoleAdmin, Active: true})
	require.NoError(t, err)
	_, err = s.CreateOperator(ctx, model.Operator{Name: "Op", PIN: "5678", Role: model.RoleOperator, Active: true})
	require.NoError(t, err)
	m, err := s.CreateMachine(ctx, model.Machine{Name: "Backhoe 7", Type: model.MachineBackhoe, CurrentHourMeter: 512, Active: true})
	require.NoError(t, err)
	_, err = s.CreateMaintenance(ctx, model.MaintenanceEvent{
		MachineID:        m.ID,
		Type:             model.MaintenancePreventive,
		Date:             testutil.FixedClock().Now(),
		Description:      "Hydraulic filter",
		NextDueHourMeter: ptr(nextDue),
		Status:           model.StatusPending,
	})
	require.NoError(t, err)
	return fleet{store: s, admin: admin, machine: m}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, nil, &webpush.Options{}, zap.NewNop(), nil)

	wp.Dispatch("m-1")

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "m-1", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchNeverBlocks(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, nil, &webpush.Options{}, zap.NewNop(), nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(wp.jobs)+5; i++ {
			wp.HourMeterAdvanced("m-1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("dispatch blocked on a full queue")
	}
	assert.Equal(t, cap(wp.jobs), len(wp.jobs))
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	t.Run("sends reminder to admin subscriptions", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		f := newFleet(t, 510)
		wp := NewWorkerPool(1, gormDB, f.store, &webpush.Options{}, zap.NewNop(), nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		wp.Start(ctx)

		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "Backhoe 7: Hydraulic filter is due at 510.0 h (hour-meter now 512.0 h)", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE operator_id IN \(\$1\)`).
			WithArgs(f.admin.ID).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "operator_id", "created_at"}).
				AddRow("https://example.com/push", "test_p256dh", "test_auth", f.admin.ID, time.Now()))

		wp.Dispatch(f.machine.ID)
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		f := newFleet(t, 500)
		wp := NewWorkerPool(1, gormDB, f.store, &webpush.Options{}, zap.NewNop(), nil)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE operator_id IN \(\$1\)`).
			WithArgs(f.admin.ID).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "operator_id", "created_at"}).
				AddRow("https://example.com/expired", "p", "a", f.admin.ID, time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.remindForMachine(context.Background(), f.machine.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing due sends nothing", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		f := newFleet(t, 520)
		wp := NewWorkerPool(1, gormDB, f.store, &webpush.Options{}, zap.NewNop(), nil)
		wp.sender = &mockSender{
			SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
				t.Fatal("no reminder expected while 520 > 512")
				return nil, nil
			},
		}

		wp.remindForMachine(context.Background(), f.machine.ID)
		assert.NoError(t, mock.ExpectationsWereMet(), "no subscription lookup when nothing is due")

		events, err := f.store.ListMaintenance(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, events[0].Status)
	})

	t.Run("unknown machine is logged and skipped", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		f := newFleet(t, 500)
		wp := NewWorkerPool(1, gormDB, f.store, &webpush.Options{}, zap.NewNop(), nil)

		wp.remindForMachine(context.Background(), "ghost")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
