package nutrilog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

// resetFlags puts every flag back to its default so runs do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, dbFile string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--db", dbFile}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, dbFile string, args ...string) string {
	t.Helper()
	out, err := run(t, dbFile, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

// createdID pulls the id out of "Created meal <id> (...)" style output.
func createdID(t *testing.T, out string, word int) string {
	t.Helper()
	fields := strings.Fields(out)
	if len(fields) <= word {
		t.Fatalf("unexpected output %q", out)
	}
	return fields[word]
}

func TestRootHelp(t *testing.T) {
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected help output")
	}
}

func TestInitCommandIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutrilog.db")
	for i := 0; i < 2; i++ {
		out, err := run(t, path, "init")
		if err != nil {
			t.Fatalf("init run %d failed: %v", i+1, err)
		}
		if !strings.Contains(out, "Initialized nutrilog database") {
			t.Fatalf("unexpected init output: %q", out)
		}
	}
}

func TestVersionPrintsSchema(t *testing.T) {
	out := mustRun(t, filepath.Join(t.TempDir(), "nutrilog.db"), "version")
	if !strings.Contains(out, "nutrilog dev") || !strings.Contains(out, "schema: v") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Validationf("bad"), 2},
		{domain.NotFoundf("missing"), 3},
		{fmt.Errorf("wrapped: %w", domain.Conflictf("in use")), 4},
		{domain.AlreadyExistsf("dup"), 4},
		{domain.Permissionf("not yours"), 5},
		{domain.Infra("down", errors.New("dial")), 6},
		{errors.New("plain"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestParseLine(t *testing.T) {
	line, err := parseLine("oats:1.5cup", 0.4)
	if err != nil {
		t.Fatalf("parse line: %v", err)
	}
	if line.IngredientID != "oats" || line.Quantity.Amount != 1.5 || line.Quantity.Unit != "cup" || line.DensityGPerML != 0.4 {
		t.Fatalf("unexpected line: %+v", line)
	}
	line, err = parseLine("oats:200", 0)
	if err != nil || line.Quantity.Unit != "g" {
		t.Fatalf("expected bare number to be grams, got %+v err=%v", line, err)
	}
	for _, raw := range []string{"oats", ":200g", "oats:abc", "oats:2parsecs"} {
		if _, err := parseLine(raw, 0); !domain.IsValidation(err) {
			t.Fatalf("expected validation error for %q, got %v", raw, err)
		}
	}
}

func TestCommandsRequireActiveUser(t *testing.T) {
	t.Setenv("NUTRILOG_USER", "")
	path := filepath.Join(t.TempDir(), "nutrilog.db")
	_, err := run(t, path, "meal", "list")
	if domain.CodeOf(err) != domain.CodeAuth {
		t.Fatalf("expected AUTH without an active user, got %v", err)
	}
	if exitCode(err) != 5 {
		t.Fatalf("expected exit code 5, got %d", exitCode(err))
	}
}

func TestNutritionFlow(t *testing.T) {
	t.Setenv("NUTRILOG_USER", "")
	path := filepath.Join(t.TempDir(), "nutrilog.db")

	userID := createdID(t, mustRun(t, path, "user", "add", "--name", "Sam", "--use"), 2)
	if got := strings.TrimSpace(mustRun(t, path, "config", "get", "current_user")); got != userID {
		t.Fatalf("expected current_user %q, got %q", userID, got)
	}

	oats := createdID(t, mustRun(t, path, "ingredient", "add", "--name", "Oats", "--calories", "400", "--protein", "15"), 2)
	milk := createdID(t, mustRun(t, path, "ingredient", "add", "--name", "Milk", "--calories", "60", "--protein", "3"), 2)

	out := mustRun(t, path, "recipe", "add", "--name", "Porridge", "--line", oats+":50g", "--line", milk+":0.2l", "--density", "1")
	recipeID := createdID(t, out, 2)
	if !strings.Contains(out, "320.0 kcal") {
		t.Fatalf("unexpected recipe totals: %q", out)
	}

	mustRun(t, path, "meal", "from-recipe", recipeID, "--day", "2024-05-01")
	mustRun(t, path, "fake-meal", "add", "--name", "Takeaway", "--calories", "700", "--protein", "30", "--day", "2024-05-01")

	var totals service.DayTotals
	if err := json.Unmarshal([]byte(mustRun(t, path, "day", "summary", "--date", "2024-05-01", "--json")), &totals); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if totals.Calories != 1020 || totals.Protein != 43.5 || len(totals.Meals) != 1 || len(totals.FakeMeals) != 1 {
		t.Fatalf("unexpected day totals: %+v", totals)
	}

	_, err := run(t, path, "ingredient", "delete", oats)
	if domain.CodeOf(err) != domain.CodeConflict {
		t.Fatalf("expected CONFLICT deleting an ingredient in use, got %v", err)
	}

	_, err = run(t, path, "recipe", "line", "add", recipeID, oats+":10g")
	if !domain.IsValidation(err) {
		t.Fatalf("expected VALIDATION for a duplicate ingredient line, got %v", err)
	}

	other := createdID(t, mustRun(t, path, "user", "add", "--name", "Alex"), 2)
	_, err = run(t, path, "--user", other, "recipe", "show", recipeID)
	if domain.CodeOf(err) != domain.CodePermission {
		t.Fatalf("expected PERMISSION reading another user's recipe, got %v", err)
	}

	out = mustRun(t, path, "day", "stats", "--from", "2024-04-30", "--to", "2024-05-02")
	if !strings.Contains(out, "Days with entries: 1") || !strings.Contains(out, "Total: 1020.0 kcal") {
		t.Fatalf("unexpected stats output: %q", out)
	}
}

func TestWorkoutTemplateFlow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutrilog.db")
	userID := createdID(t, mustRun(t, path, "user", "add", "--name", "Sam"), 2)

	mustRun(t, path, "exercise", "add", "--id", "bench", "--name", "Bench press")
	mustRun(t, path, "exercise", "add", "--id", "row", "--name", "Barbell row")

	tplID := createdID(t, mustRun(t, path, "--user", userID, "template", "add", "--name", "Upper", "--exercise", "bench:3", "--exercise", "row:2"), 2)
	out := mustRun(t, path, "--user", userID, "template", "exercise", "reorder", tplID, "row", "0")
	if !strings.Contains(out, "row x2, bench x3") {
		t.Fatalf("unexpected order after reorder: %q", out)
	}

	out = mustRun(t, path, "--user", userID, "workout", "from-template", tplID, "--date", "2024-05-01", "--time", "18:00")
	workoutID := createdID(t, out, 2)
	if !strings.Contains(out, "with 5 set(s)") {
		t.Fatalf("expected 5 empty sets, got %q", out)
	}

	mustRun(t, path, "--user", userID, "workout", "set", "update", workoutID, "bench", "1", "--reps", "10", "--weight", "60")
	mustRun(t, path, "--user", userID, "workout", "set", "add", workoutID, "bench", "--reps", "8", "--weight", "65")

	var w workoutView
	if err := json.Unmarshal([]byte(mustRun(t, path, "--user", userID, "workout", "show", workoutID, "--json")), &w); err != nil {
		t.Fatalf("decode workout: %v", err)
	}
	if len(w.Sets) != 6 || w.VolumeKg != 600+520 {
		t.Fatalf("unexpected workout: %+v", w)
	}

	_, err := run(t, path, "exercise", "delete", "bench")
	if domain.CodeOf(err) != domain.CodeConflict {
		t.Fatalf("expected CONFLICT deleting an exercise in use, got %v", err)
	}

	mustRun(t, path, "--user", userID, "template", "delete", tplID)
	_, err = run(t, path, "--user", userID, "template", "show", tplID)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected deleted template to be NOT_FOUND, got %v", err)
	}
}

func TestExportImportCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nutrilog.db")
	userID := createdID(t, mustRun(t, path, "user", "add", "--name", "Sam"), 2)
	mustRun(t, path, "--user", userID, "fake-meal", "add", "--name", "Snack", "--calories", "250", "--protein", "10", "--day", "2024-05-01")

	snapshot := filepath.Join(dir, "snapshot.json")
	mustRun(t, path, "export", "--out", snapshot)

	out := mustRun(t, path, "import", "--in", snapshot, "--mode", "skip")
	if !strings.Contains(out, "inserted=0") {
		t.Fatalf("expected nothing new on re-import, got %q", out)
	}

	target := filepath.Join(dir, "copy.db")
	out = mustRun(t, target, "import", "--in", snapshot, "--dry-run")
	if !strings.HasPrefix(out, "Dry run:") {
		t.Fatalf("unexpected dry run output: %q", out)
	}
	out = mustRun(t, target, "import", "--in", snapshot)
	if strings.Contains(out, "inserted=0") {
		t.Fatalf("expected records to be inserted, got %q", out)
	}

	csvOut := mustRun(t, target, "--user", userID, "export", "--format", "csv")
	if !strings.Contains(csvOut, "date,kind,id,name,calories,protein_g") || !strings.Contains(csvOut, "2024-05-01,fake_meal,") {
		t.Fatalf("unexpected csv export: %q", csvOut)
	}

	_, err := run(t, target, "import", "--in", snapshot, "--mode", "overwrite")
	if !domain.IsValidation(err) {
		t.Fatalf("expected VALIDATION for an unknown mode, got %v", err)
	}
}

func TestDoctorAndBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nutrilog.db")
	mustRun(t, path, "init")

	out := mustRun(t, path, "doctor")
	if !strings.Contains(out, "Orphan ingredient lines: 0") {
		t.Fatalf("unexpected doctor output: %q", out)
	}

	out = mustRun(t, path, "backup", "create", "--dir", filepath.Join(dir, "backups"))
	if !strings.Contains(out, "Created backup:") {
		t.Fatalf("unexpected backup output: %q", out)
	}
	out = mustRun(t, path, "backup", "list", "--dir", filepath.Join(dir, "backups"))
	if strings.Count(out, ".db\t") != 1 {
		t.Fatalf("expected one backup listed, got %q", out)
	}

	_, err := run(t, path, "backup", "restore", "--file", filepath.Join(dir, "missing.db"))
	if domain.CodeOf(err) != domain.CodeAlreadyExists {
		t.Fatalf("expected ALREADY_EXISTS restoring over an existing db without --force, got %v", err)
	}
	if _, err := run(t, path, "backup", "restore"); !domain.IsValidation(err) {
		t.Fatalf("expected restore without a source to fail validation, got %v", err)
	}
	_, err = run(t, path, "backup", "restore", "--latest", "--dir", filepath.Join(dir, "empty"))
	if err == nil {
		t.Fatalf("expected restore from a missing backup dir to fail")
	}
	out = mustRun(t, path, "backup", "restore", "--latest", "--force", "--dir", filepath.Join(dir, "backups"))
	if !strings.Contains(out, "Restored ") || !strings.Contains(out, filepath.Join(dir, "backups")) {
		t.Fatalf("unexpected restore output: %q", out)
	}
	mustRun(t, path, "doctor")
}
