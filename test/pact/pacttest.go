//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ConsumerName        = "order-service"
	CatalogProviderName = "catalog-service"
	PaymentProviderName = "payment-service"

	StateCatalogBaseline = "catalog seeded with product 1 and client 7"
	StatePaymentsBase    = "payments baseline"
)

const (
	ExistingProductID int64 = 1
	MissingProductID  int64 = 404
	ExistingClientID  int64 = 7
	MissingClientID   int64 = 404
	ProductStock      int32 = 10
	ProductPrice            = "100"

	ClientName  = "Pact Client"
	ClientEmail = "pact.client@example.com"

	OrderID      int64 = 301
	DeclineCVV         = "999"
	ApprovedCVV        = "123"
	CardNumber         = "4111111111111111"
	PaymentTotal       = "300"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the pact file path the orders consumer writes for provider.
func PactFile(t testing.TB, provider string) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+provider+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
