package ioc

import (
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Shared test types and constructors used across test files.

func mustTransient[C any](t *testing.T, c Container, impl any) {
	t.Helper()
	require.NoError(t, RegisterTransient[C](c, impl), "RegisterTransient[%s]", reflect.TypeFor[C]())
}

func mustSingleton[C any](t *testing.T, c Container, impl any) {
	t.Helper()
	require.NoError(t, RegisterSingleton[C](c, impl), "RegisterSingleton[%s]", reflect.TypeFor[C]())
}

func mustResolve[C any](t *testing.T, c Container) C {
	t.Helper()
	out, err := Resolve[C](c)
	require.NoError(t, err, "Resolve[%s]", reflect.TypeFor[C]())
	return out
}

// requireKind asserts err is an *Error of the given kind and returns it.
func requireKind(t *testing.T, err error, kind error) *Error {
	t.Helper()
	require.ErrorIs(t, err, kind)
	var e *Error
	require.ErrorAs(t, err, &e)
	return e
}

// ---------------------------------------------------------------------------
// Timestamp services
// ---------------------------------------------------------------------------

type testStamped interface {
	CreatedAt() time.Time
}

type testSingletonService struct{ created time.Time }

func (s *testSingletonService) CreatedAt() time.Time { return s.created }

type testService interface {
	CreatedAt() time.Time
	Stamp() testStamped
}

type testStampService struct{ stamp testStamped }

func (s *testStampService) CreatedAt() time.Time { return s.stamp.CreatedAt() }
func (s *testStampService) Stamp() testStamped   { return s.stamp }

func newTestSingletonService() *testSingletonService {
	return &testSingletonService{created: time.Now()}
}

func newTestStampService(stamp testStamped) *testStampService {
	return &testStampService{stamp: stamp}
}

// ---------------------------------------------------------------------------
// Layered application
// ---------------------------------------------------------------------------

type testLogger struct{ Prefix string }
type testConfig struct{ DSN string }

type testDatabase struct {
	Config *testConfig
	Logger *testLogger
}

type testUserRepo struct {
	DB     *testDatabase
	Logger *testLogger
}

type testUserService struct {
	Repo   *testUserRepo
	Logger *testLogger
}

type testOrderService struct{ Logger *testLogger }

func newTestLogger() *testLogger { return &testLogger{Prefix: "app"} }
func newTestConfig() *testConfig { return &testConfig{DSN: "postgres://localhost"} }

func newTestDatabase(cfg *testConfig, log *testLogger) *testDatabase {
	return &testDatabase{Config: cfg, Logger: log}
}

func newTestUserRepo(db *testDatabase, log *testLogger) *testUserRepo {
	return &testUserRepo{DB: db, Logger: log}
}

func newTestUserService(repo *testUserRepo, log *testLogger) *testUserService {
	return &testUserService{Repo: repo, Logger: log}
}

func newTestOrderService(log *testLogger) *testOrderService {
	return &testOrderService{Logger: log}
}

// registerLayered binds the layered application with every layer as a
// singleton.
func registerLayered(t *testing.T, c Container) {
	t.Helper()
	mustSingleton[*testLogger](t, c, newTestLogger)
	mustSingleton[*testConfig](t, c, newTestConfig)
	mustSingleton[*testDatabase](t, c, newTestDatabase)
	mustSingleton[*testUserRepo](t, c, newTestUserRepo)
	mustSingleton[*testUserService](t, c, newTestUserService)
}

// ---------------------------------------------------------------------------
// Cycles
// ---------------------------------------------------------------------------

type testCircA struct{ B *testCircB }
type testCircB struct{ C *testCircC }
type testCircC struct{ A *testCircA }

func newTestCircA(b *testCircB) *testCircA { return &testCircA{B: b} }
func newTestCircB(c *testCircC) *testCircB { return &testCircB{C: c} }
func newTestCircC(a *testCircA) *testCircC { return &testCircC{A: a} }

// ---------------------------------------------------------------------------
// Counting and failing constructors
// ---------------------------------------------------------------------------

// countingLogger returns a constructor for *testLogger that counts its calls.
func countingLogger(calls *atomic.Int32) func() *testLogger {
	return func() *testLogger {
		calls.Add(1)
		return &testLogger{Prefix: "app"}
	}
}

var errConnect = errors.New("connection failed")

// testClosable is a singleton that implements io.Closer for shutdown tests.
type testClosable struct {
	Name   string
	Closed bool
	Order  *[]string // shared slice to record close order
}

func (c *testClosable) Close() error {
	c.Closed = true
	if c.Order != nil {
		*c.Order = append(*c.Order, c.Name)
	}
	return nil
}

// testFailCloser implements io.Closer but returns an error.
type testFailCloser struct{}

func (f *testFailCloser) Close() error {
	return errors.New("close failed")
}
