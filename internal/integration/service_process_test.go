//go:build integration

package integration

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ratematch/internal/provider"
	"ratematch/internal/rates"
	"ratematch/internal/repository"
	"ratematch/internal/service"
	"ratematch/internal/testkit"
)

const firstSnapshot = `{"date":"2025-03-21 12:43:00+00","base":"USD","rates":{"USD":"1.0","PLN":"4.0","EUR":"0.9","BTC":"0.00002"}}`

const secondSnapshot = `{"date":"2025-03-22 12:43:00+00","base":"USD","rates":{"USD":"1.0","PLN":"4.2","EUR":"0.8","BTC":"0.00001","ETH":"0.0005"}}`

// newTestService builds a service on the real repository whose table was
// loaded from firstSnapshot and rebased to PLN.
func newTestService(t *testing.T, rs *testkit.RateServer, enq service.TaskEnqueuer) (*service.RateService, *rates.Table) {
	t.Helper()
	ctx := testContext(t)

	src := provider.NewCurrencyFreaksSource(rs.URL, "test-key", 5)
	snap, err := src.Fetch(ctx)
	if err != nil {
		t.Fatalf("initial Fetch: %v", err)
	}
	table, err := rates.New(rates.NewClassifier("USD", "PLN", "EUR"), "PLN", snap)
	if err != nil {
		t.Fatalf("rates.New: %v", err)
	}

	svc := service.NewRateService(service.Deps{
		Table:      table,
		Source:     src,
		SourceName: testSource,
		Repo:       repository.NewPostgresRefreshJobRepository(testDB),
		Enqueuer:   enq,
	}, zap.NewNop().Sugar())
	return svc, table
}

func TestProcessRefresh_FullLifecycle(t *testing.T) {
	suite.Reset(t)
	ctx := testContext(t)

	rs := testkit.NewRateServer(t, firstSnapshot)
	svc, table := newTestService(t, rs, nil)

	// 1. Create a PENDING record.
	id := uuid.New().String()
	if _, _, err := repository.NewPostgresRefreshJobRepository(testDB).Create(ctx, id, testSource); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// 2. Process the refresh against the new snapshot.
	rs.Respond(http.StatusOK, secondSnapshot)
	if err := svc.ProcessRefresh(ctx, id); err != nil {
		t.Fatalf("ProcessRefresh: %v", err)
	}

	// 3. The job records the outcome.
	j, err := svc.GetRefreshJob(ctx, id)
	if err != nil {
		t.Fatalf("GetRefreshJob: %v", err)
	}
	if j.Status != "SUCCESS" {
		t.Fatalf("expected SUCCESS, got %s", j.Status)
	}
	if j.ProviderBase == nil || *j.ProviderBase != "USD" {
		t.Fatalf("expected provider base USD, got %v", j.ProviderBase)
	}
	if j.Symbols == nil || *j.Symbols != 5 {
		t.Fatalf("expected 5 symbols, got %v", j.Symbols)
	}

	// 4. The table keeps its base and serves the new rates.
	if table.Base() != "PLN" {
		t.Fatalf("expected base PLN to survive the refresh, got %s", table.Base())
	}
	m, err := svc.Match("0.2", "fiat")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if m.Symbol != "EUR" {
		t.Fatalf("expected EUR (0.8/4.2), got %s", m.Symbol)
	}
	alt, err := svc.Rates("alt")
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if len(alt.Alt) != 2 {
		t.Fatalf("expected 2 alt rates after refresh, got %d", len(alt.Alt))
	}

	// 5. Processing the finished job again is a no-op.
	if err := svc.ProcessRefresh(ctx, id); err != nil {
		t.Fatalf("second ProcessRefresh: %v", err)
	}
}

func TestProcessRefresh_SourceFailureKeepsTable(t *testing.T) {
	suite.Reset(t)
	ctx := testContext(t)

	rs := testkit.NewRateServer(t, firstSnapshot)
	svc, table := newTestService(t, rs, nil)
	before := table.View()

	id := uuid.New().String()
	if _, _, err := repository.NewPostgresRefreshJobRepository(testDB).Create(ctx, id, testSource); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rs.Respond(http.StatusServiceUnavailable, `{"message":"down"}`)
	err := svc.ProcessRefresh(ctx, id)
	var unavailable *rates.SourceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SourceUnavailableError, got %v", err)
	}

	j, err := svc.GetRefreshJob(ctx, id)
	if err != nil {
		t.Fatalf("GetRefreshJob: %v", err)
	}
	if j.Status != "FAILED" {
		t.Fatalf("expected FAILED, got %s", j.Status)
	}
	if j.ErrorMsg == nil || *j.ErrorMsg == "" {
		t.Fatal("expected error message to be recorded")
	}

	if rs.Hits() != 2 {
		t.Fatalf("expected one initial and one refresh request, got %d", rs.Hits())
	}

	after := table.View()
	if after.Base != before.Base || len(after.Fiat) != len(before.Fiat) || len(after.Alt) != len(before.Alt) {
		t.Fatalf("table changed after failed refresh: before %+v, after %+v", before, after)
	}

	// The retry succeeds once the source recovers.
	rs.Respond(http.StatusOK, secondSnapshot)
	if err := svc.ProcessRefresh(ctx, id); err != nil {
		t.Fatalf("retry ProcessRefresh: %v", err)
	}
	j, err = svc.GetRefreshJob(ctx, id)
	if err != nil {
		t.Fatalf("GetRefreshJob: %v", err)
	}
	if j.Status != "SUCCESS" {
		t.Fatalf("expected SUCCESS after retry, got %s", j.Status)
	}
}

func TestProcessRefresh_MissingBaseIsRejected(t *testing.T) {
	suite.Reset(t)
	ctx := testContext(t)

	rs := testkit.NewRateServer(t, firstSnapshot)
	svc, table := newTestService(t, rs, nil)

	id := uuid.New().String()
	if _, _, err := repository.NewPostgresRefreshJobRepository(testDB).Create(ctx, id, testSource); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rs.Respond(http.StatusOK, `{"date":"2025-03-22","base":"USD","rates":{"USD":"1.0","EUR":"0.8"}}`)
	err := svc.ProcessRefresh(ctx, id)
	if !errors.Is(err, rates.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
	if table.Base() != "PLN" {
		t.Fatalf("expected base PLN, got %s", table.Base())
	}
	if got := table.Snapshot().Len(); got != 4 {
		t.Fatalf("expected previous snapshot with 4 rates, got %d", got)
	}
}

func TestProcessRefresh_ScheduledRun(t *testing.T) {
	suite.Reset(t)
	ctx := testContext(t)

	rs := testkit.NewRateServer(t, firstSnapshot)
	svc, _ := newTestService(t, rs, nil)

	if err := svc.ProcessRefresh(ctx, ""); err != nil {
		t.Fatalf("ProcessRefresh: %v", err)
	}

	var status string
	var count int
	row := testDB.QueryRowContext(ctx, "SELECT status::text, COUNT(*) OVER () FROM refresh_jobs")
	if err := row.Scan(&status, &count); err != nil {
		t.Fatalf("query refresh_jobs: %v", err)
	}
	if count != 1 || status != "SUCCESS" {
		t.Fatalf("expected one SUCCESS job, got %d rows with status %s", count, status)
	}
}

func TestProcessRefresh_ScheduledRunSkipsInFlight(t *testing.T) {
	suite.Reset(t)
	ctx := testContext(t)

	rs := testkit.NewRateServer(t, firstSnapshot)
	svc, table := newTestService(t, rs, nil)

	pending := uuid.New().String()
	if _, _, err := repository.NewPostgresRefreshJobRepository(testDB).Create(ctx, pending, testSource); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rs.Respond(http.StatusOK, secondSnapshot)
	if err := svc.ProcessRefresh(ctx, ""); err != nil {
		t.Fatalf("ProcessRefresh: %v", err)
	}
	if got := table.Snapshot().Len(); got != 4 {
		t.Fatalf("expected the scheduled run to be skipped, snapshot has %d rates", got)
	}

	j, err := svc.GetRefreshJob(ctx, pending)
	if err != nil {
		t.Fatalf("GetRefreshJob: %v", err)
	}
	if j.Status != "PENDING" {
		t.Fatalf("expected pending job to be untouched, got %s", j.Status)
	}
}

var _ service.TaskEnqueuer = (*recordingEnqueuer)(nil)

// recordingEnqueuer keeps payloads instead of sending them to a queue.
type recordingEnqueuer struct {
	payloads []service.RefreshRatesPayload
}

func (r *recordingEnqueuer) EnqueueRefreshTask(_ context.Context, p service.RefreshRatesPayload) error {
	r.payloads = append(r.payloads, p)
	return nil
}

func TestRequestRefresh_Dedup(t *testing.T) {
	suite.Reset(t)
	ctx := testContext(t)

	rs := testkit.NewRateServer(t, firstSnapshot)
	enq := &recordingEnqueuer{}
	svc, _ := newTestService(t, rs, enq)

	id1, status, err := svc.RequestRefresh(ctx)
	if err != nil {
		t.Fatalf("RequestRefresh: %v", err)
	}
	if status != "PENDING" {
		t.Fatalf("expected PENDING, got %s", status)
	}

	id2, _, err := svc.RequestRefresh(ctx)
	if err != nil {
		t.Fatalf("second RequestRefresh: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("expected in-flight job %s, got %s", id1, id2)
	}
	if len(enq.payloads) != 1 || enq.payloads[0].JobID != id1 {
		t.Fatalf("expected exactly one enqueued task for %s, got %+v", id1, enq.payloads)
	}
}
