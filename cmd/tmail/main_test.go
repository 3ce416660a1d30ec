package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"tmail/internal/config"
	"tmail/internal/jmap"
	"tmail/internal/journal"
	"tmail/internal/testsupport"
)

func TestLoginStoresCredentials(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutCredentials())

	out, _, err := runCLI(t, []string{"login", "--token", testsupport.FakeToken}, env.configPath)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, out, "Logged in as user@example.com (account u1)")
	requireContains(t, out, "Credentials saved to "+env.configPath)

	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if cfg.Fastmail.APIToken != testsupport.FakeToken || cfg.Fastmail.AccountID != testsupport.FakeAccountID {
		t.Fatalf("credentials not stored: %+v", cfg.Fastmail)
	}
	if cfg.Fastmail.SessionURL != env.fake.SessionURL() {
		t.Fatalf("existing settings lost, session url = %q", cfg.Fastmail.SessionURL)
	}

	info, err := os.Stat(env.configPath)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config permissions = %o, want 600", perm)
	}
}

func TestLoginReadsTokenFromEnvironment(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutCredentials())
	t.Setenv(config.TokenEnvVar, testsupport.FakeToken)

	out, _, err := runCLI(t, []string{"login"}, env.configPath)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, out, "account u1")
}

func TestLoginWithoutTokenWhenNotInteractive(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutCredentials())

	_, _, err := runCLI(t, []string{"login"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), config.TokenEnvVar) {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestLoginRejectedToken(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutCredentials())

	_, _, err := runCLI(t, []string{"login", "--token", "wrong"}, env.configPath)
	if !errors.Is(err, jmap.ErrAuthentication) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if code := exitCode(err); code != exitAuthentication {
		t.Fatalf("exit code = %d, want %d", code, exitAuthentication)
	}
	requireContains(t, describeError(err), "HTTP 401")
	requireContains(t, describeError(err), "invalid token")
}

func TestLoginWithoutMaskedEmailScope(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutCredentials())
	env.fake.OmitCapability = true

	_, _, err := runCLI(t, []string{"login", "--token", testsupport.FakeToken}, env.configPath)
	if !errors.Is(err, jmap.ErrCapabilityMissing) {
		t.Fatalf("expected capability failure, got %v", err)
	}
	if code := exitCode(err); code != exitCapability {
		t.Fatalf("exit code = %d, want %d", code, exitCapability)
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutCredentials())

	for _, args := range [][]string{
		{"masked", "list"},
		{"masked", "create", "-d", "x"},
		{"masked", "delete", "a@example.com"},
		{"masked", "destroy", "--yes", "a@example.com"},
		{"masked", "show", "a@example.com"},
	} {
		_, _, err := runCLI(t, args, env.configPath)
		if !errors.Is(err, config.ErrNotLoggedIn) {
			t.Fatalf("%v: expected ErrNotLoggedIn, got %v", args, err)
		}
		if code := exitCode(err); code != exitAuthentication {
			t.Fatalf("%v: exit code = %d", args, code)
		}
	}
	if len(env.fake.Methods()) != 0 {
		t.Fatalf("no remote calls expected, got %v", env.fake.Methods())
	}
}

func TestMaskedListDefaultsToEnabledTSV(t *testing.T) {
	env := setupCLITestEnv(t)
	seedDefaults(env.fake)

	out, _, err := runCLI(t, []string{"masked", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := "shop.a1@fastmail.example\t2024-01-05\thttps://shop.example\tShop\n"
	if out != want {
		t.Fatalf("list output = %q, want %q", out, want)
	}
}

func TestMaskedListAllIncludesState(t *testing.T) {
	env := setupCLITestEnv(t)
	seedDefaults(env.fake)

	out, _, err := runCLI(t, []string{"masked", "list", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("list --all: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %q", out)
	}
	if lines[1] != "old.b2@fastmail.example\t2023-06-01\tDisabled\t\t" {
		t.Fatalf("unexpected disabled row %q", lines[1])
	}
	if lines[2] != "gone.c3@fastmail.example\t\tDeleted\t\t" {
		t.Fatalf("unexpected deleted row %q", lines[2])
	}
}

func TestMaskedListTableAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	seedDefaults(env.fake)

	out, _, err := runCLI(t, []string{"masked", "list", "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("list table: %v", err)
	}
	requireContains(t, out, "Email")
	requireNotContains(t, out, "EMAIL")
	requireContains(t, out, "shop.a1@fastmail.example")
	requireNotContains(t, out, "old.b2@fastmail.example")

	out, _, err = runCLI(t, []string{"masked", "list", "--all", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("list json: %v", err)
	}
	var views []maskedEmailView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(views) != 3 || views[0].ID != "m1" || views[2].State != "deleted" {
		t.Fatalf("unexpected views %+v", views)
	}
}

func TestMaskedListRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"masked", "list", "--format", "xml"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestMaskedCreateRecordsActivity(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"masked", "create", "-d", "Newsletter", "-w", "HTTPS://News.Example/"}, env.configPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.TrimSpace(out) != "alias.1@fastmail.example" {
		t.Fatalf("create output = %q", out)
	}

	item, ok := env.fake.Item("masked-1")
	if !ok {
		t.Fatal("created item missing from fake")
	}
	if item["state"] != "enabled" || item["forDomain"] != "https://news.example" || item["description"] != "Newsletter" {
		t.Fatalf("unexpected created item %v", item)
	}

	out, _, err = runCLI(t, []string{"history", "--format", "tsv"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "\tcreated\talias.1@fastmail.example\thttps://news.example\tNewsletter")
}

func TestMaskedCreateWithoutDetails(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"masked", "create"}, env.configPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	requireContains(t, out, "alias.1@fastmail.example")
	item, _ := env.fake.Item("masked-1")
	if _, ok := item["description"]; ok {
		t.Fatalf("description should be omitted, got %v", item)
	}
}

func TestMaskedDeleteDisablesAddress(t *testing.T) {
	env := setupCLITestEnv(t)
	seedDefaults(env.fake)

	out, _, err := runCLI(t, []string{"masked", "delete", "shop.a1@fastmail.example"}, env.configPath)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireContains(t, out, "Disabled shop.a1@fastmail.example")
	if item, _ := env.fake.Item("m1"); item["state"] != "disabled" {
		t.Fatalf("state = %v, want disabled", item["state"])
	}

	out, _, err = runCLI(t, []string{"masked", "archive", "old.b2@fastmail.example"}, env.configPath)
	if err != nil {
		t.Fatalf("archive alias on disabled entry: %v", err)
	}
	requireContains(t, out, "Disabled old.b2@fastmail.example")
}

func TestMaskedDeleteRequiresAddress(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"masked", "delete"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "tmail masked delete <email>") {
		t.Fatalf("expected usage hint, got %v", err)
	}
}

func TestMaskedDeleteUnknownAddress(t *testing.T) {
	env := setupCLITestEnv(t)
	seedDefaults(env.fake)

	_, _, err := runCLI(t, []string{"masked", "delete", "nobody@fastmail.example"}, env.configPath)
	if !errors.Is(err, jmap.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if code := exitCode(err); code != exitNotFound {
		t.Fatalf("exit code = %d, want %d", code, exitNotFound)
	}
	msg := describeError(err)
	requireContains(t, msg, "nobody@fastmail.example")
	requireContains(t, msg, "tmail masked list --all")
}

func TestMaskedDeleteOfDeletedAddressIsRefused(t *testing.T) {
	env := setupCLITestEnv(t)
	seedDefaults(env.fake)

	_, _, err := runCLI(t, []string{"masked", "delete", "gone.c3@fastmail.example"}, env.configPath)
	if err == nil {
		t.Fatal("expected error disabling a deleted address")
	}
	for _, method := range env.fake.Methods() {
		if method == "MaskedEmail/set" {
			t.Fatalf("no update expected, got %v", env.fake.Methods())
		}
	}
}

func TestMaskedDestroyRequiresConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)
	seedDefaults(env.fake)

	_, _, err := runCLI(t, []string{"masked", "destroy", "shop.a1@fastmail.example"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if len(env.fake.Methods()) != 0 {
		t.Fatalf("no remote calls expected, got %v", env.fake.Methods())
	}

	out, _, err := runCLI(t, []string{"masked", "destroy", "--yes", "shop.a1@fastmail.example"}, env.configPath)
	if err != nil {
		t.Fatalf("destroy: %v", err)
	}
	requireContains(t, out, "Deleted shop.a1@fastmail.example")
	if item, _ := env.fake.Item("m1"); item["state"] != "deleted" {
		t.Fatalf("state = %v, want deleted", item["state"])
	}

	store := testsupport.MustOpenJournal(t, env.cfg)
	entries, err := store.ForEmail(context.Background(), "shop.a1@fastmail.example")
	if err != nil {
		t.Fatalf("ForEmail: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != journal.ActionDestroyed || entries[0].MaskedEmailID != "m1" || entries[0].AccountID != testsupport.FakeAccountID {
		t.Fatalf("unexpected journal entries %+v", entries)
	}
}

func TestMaskedShowIncludesHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	seedDefaults(env.fake)

	if _, _, err := runCLI(t, []string{"masked", "delete", "shop.a1@fastmail.example"}, env.configPath); err != nil {
		t.Fatalf("delete: %v", err)
	}

	out, _, err := runCLI(t, []string{"masked", "show", "shop.a1@fastmail.example"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "m1")
	requireContains(t, out, "Disabled")
	requireContains(t, out, "archived")

	out, _, err = runCLI(t, []string{"masked", "show", "--format", "json", "shop.a1@fastmail.example"}, env.configPath)
	if err != nil {
		t.Fatalf("show json: %v", err)
	}
	var view maskedEmailView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "disabled" || len(view.History) != 1 || view.History[0].Action != journal.ActionArchived {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestHistoryWithJournalDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithJournalDisabled())

	if _, _, err := runCLI(t, []string{"masked", "create", "-d", "x"}, env.configPath); err != nil {
		t.Fatalf("create with journal disabled: %v", err)
	}
	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled journal error, got %v", err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history", "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No recorded activity")
}

func TestRemoteFailureIsDescribed(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.Status = 503
	env.fake.StatusBody = "maintenance"

	_, _, err := runCLI(t, []string{"masked", "list"}, env.configPath)
	if err == nil {
		t.Fatal("expected failure")
	}
	msg := describeError(err)
	requireContains(t, msg, "HTTP 503")
	requireContains(t, msg, "maintenance")
}

func TestDescribeErrorPassesThroughPlainErrors(t *testing.T) {
	err := fmt.Errorf("boom")
	if got := describeError(err); got != "boom" {
		t.Fatalf("describeError = %q", got)
	}
	if code := exitCode(err); code != exitFailure {
		t.Fatalf("exit code = %d", code)
	}
	if describeError(nil) != "" {
		t.Fatal("nil error should describe as empty")
	}
}
