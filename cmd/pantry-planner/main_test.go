package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupCLITestEnv(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	for _, key := range []string{
		"PANTRY_DB_PATH", "PANTRY_STORE", "PANTRY_USER",
		"LLM_PROVIDER", "GEMINI_API_KEY", "GROQ_API_KEY", "LLM_MODEL",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_URL", "TELEGRAM_ALLOW_USER_IDS", "TELEGRAM_ADMIN_ID",
		"DATABASE_URL", "REMOTE_URL", "REMOTE_API_KEY", "REMOTE_JWT_SECRET",
		"API_JWT_SECRET", "PORT", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("PANTRY_DATA_DIR", filepath.Join(base, "data"))
	t.Setenv("LOG_LEVEL", "error")
	return base
}

func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, nil, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestShoppingListCommands(t *testing.T) {
	base := setupCLITestEnv(t)

	requireContains(t, mustRun(t, "list"), "Nothing to buy")

	requireContains(t, mustRun(t, "add", "2", "kg", "potatoes"), "Added 1, updated 0")
	out := mustRun(t, "add", "1 kg potatoes")
	requireContains(t, out, "updated 1")
	requireContains(t, out, "~ potatoes\t3 kg")

	tomorrow := time.Now().Add(24 * time.Hour).Format(dateLayout)
	requireContains(t, mustRun(t, "pantry", "add", "500 g rice", "--expires", tomorrow), "Stocked rice\t500 g")

	out, err := runCLI(t, strings.NewReader("200 g rice\n300 g flour\n"), "add-recipe", "-", "--origin", "Bread")
	if err != nil {
		t.Fatalf("add-recipe: %v", err)
	}
	requireContains(t, out, "Added 1, updated 0")
	requireContains(t, out, "+ flour\t300 g")

	recipeFile := filepath.Join(base, "pancakes.txt")
	if err := os.WriteFile(recipeFile, []byte("1 cup milk\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	requireContains(t, mustRun(t, "add-recipe", recipeFile), "+ milk\t1 cup")

	out = mustRun(t, "list")
	requireContains(t, out, "1\t \tpotatoes\t3 kg\t\t")
	requireContains(t, out, "2\t \tflour\t300 g\tBread\t")
	requireContains(t, out, "3\t \tmilk\t1 cup\tpancakes\t")

	requireContains(t, mustRun(t, "check", "1"), "1\tx\tpotatoes")
	requireContains(t, mustRun(t, "qty", "2", "500"), "flour\t500 g")

	if _, err := runCLI(t, nil, "qty", "2", "lots"); err == nil {
		t.Error("expected an invalid quantity to fail")
	}
	if _, err := runCLI(t, nil, "rm", "9"); err == nil || !strings.Contains(err.Error(), "no item 9") {
		t.Errorf("expected a missing position error, got %v", err)
	}

	requireContains(t, mustRun(t, "clear", "--checked"), "Removed 1 items")
	requireContains(t, mustRun(t, "rm", "2"), "Removed milk")

	out = mustRun(t, "list")
	if strings.Contains(out, "potatoes") || !strings.Contains(out, "flour") {
		t.Errorf("unexpected list after clearing:\n%s", out)
	}

	requireContains(t, mustRun(t, "--user", "someone-else", "list"), "Nothing to buy")
	requireContains(t, mustRun(t, "clear"), "Removed 1 items")
}

func TestPantryCommands(t *testing.T) {
	setupCLITestEnv(t)

	requireContains(t, mustRun(t, "pantry", "list"), "Pantry is empty")

	soon := time.Now().Add(24 * time.Hour).Format(dateLayout)
	later := time.Now().Add(30 * 24 * time.Hour).Format(dateLayout)
	mustRun(t, "pantry", "add", "500 g rice", "--expires", soon)
	mustRun(t, "pantry", "add", "1 kg flour", "--expires", later)

	if _, err := runCLI(t, nil, "pantry", "add", "salt", "--expires", "tomorrow"); err == nil {
		t.Error("expected an invalid date to fail")
	}

	out := mustRun(t, "pantry", "list")
	requireContains(t, out, "flour\t1 kg\t"+later)
	requireContains(t, out, "rice\t500 g\t"+soon)

	out = mustRun(t, "pantry", "expiring", "--days", "2")
	requireContains(t, out, "rice")
	if strings.Contains(out, "flour") {
		t.Errorf("flour should not be expiring yet:\n%s", out)
	}

	id := strings.TrimSpace(strings.Split(strings.Split(out, "\n")[0], "\t")[3])
	if _, err := runCLI(t, nil, "--user", "someone-else", "pantry", "rm", id); err == nil {
		t.Error("expected removing another user's item to fail")
	}
	requireContains(t, mustRun(t, "pantry", "rm", id), "Removed")
	if strings.Contains(mustRun(t, "pantry", "list"), "rice") {
		t.Error("rice should be gone")
	}
}

func TestImportCommand(t *testing.T) {
	setupCLITestEnv(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><script type="application/ld+json">
		{"@type": "Recipe", "name": "Tomato Soup", "recipeIngredient": ["1 kg tomatoes", "salt"]}
		</script></head><body></body></html>`))
	}))
	defer ts.Close()

	out := mustRun(t, "import", ts.URL)
	requireContains(t, out, `Imported "Tomato Soup"`)
	requireContains(t, out, "+ tomatoes\t1 kg")

	out = mustRun(t, "import", ts.URL)
	requireContains(t, out, "(cached)")
	requireContains(t, out, "~ tomatoes\t2 kg")
}

func TestStoreFlag(t *testing.T) {
	setupCLITestEnv(t)

	mustRun(t, "--store", "file", "add", "1 l milk")
	requireContains(t, mustRun(t, "--store", "file", "list"), "milk")
	requireContains(t, mustRun(t, "list"), "Nothing to buy")

	_, err := runCLI(t, nil, "--store", "bogus", "list")
	if err == nil || !strings.Contains(err.Error(), "store.backend") {
		t.Errorf("expected a store.backend error, got %v", err)
	}
}

func TestMetricsCommands(t *testing.T) {
	setupCLITestEnv(t)

	out := mustRun(t, "usage")
	requireContains(t, out, "No model usage recorded")
	requireContains(t, out, "Data:")

	if _, err := runCLI(t, nil, "metrics-cleanup", "--days", "0"); err == nil {
		t.Error("expected --days 0 to fail")
	}
	requireContains(t, mustRun(t, "metrics-cleanup", "--days", "30"), "Removed 0 metric rows")
}
