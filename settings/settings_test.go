package settings

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/amonks/fileconverter/api"
)

type fakeRemote struct {
	status   api.ConfigStatus
	checkErr error
	saveErr  error
	saved    []api.SaveConfigRequest
	checks   int
}

func (r *fakeRemote) CheckConfig(context.Context) (api.ConfigStatus, error) {
	r.checks++
	if r.checkErr != nil {
		return api.ConfigStatus{}, r.checkErr
	}
	return r.status, nil
}

func (r *fakeRemote) SaveConfig(_ context.Context, request api.SaveConfigRequest) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, request)
	r.status = api.ConfigStatus{
		ConfigExists:  true,
		SecretsExists: true,
		Config:        api.PackagerConfig{PackagerMode: request.PackagerMode},
		Secrets: api.Secrets{
			TNumber:    request.TNumber,
			APIKey:     request.APIKey,
			Endpoint:   request.Endpoint,
			ModelName:  request.ModelName,
			APIVersion: request.APIVersion,
		},
	}
	return nil
}

func validConfiguration() Configuration {
	return Configuration{
		TNumber:    "T12345",
		Endpoint:   "https://x.openai.azure.com/",
		APIKey:     "sk-test-1234",
		APIVersion: "2024-02-01",
		ModelName:  "gpt-4o",
	}
}

func completeRemote() *fakeRemote {
	return &fakeRemote{status: api.ConfigStatus{
		ConfigExists:  true,
		SecretsExists: true,
		Config:        api.PackagerConfig{PackagerMode: "dev"},
		Secrets: api.Secrets{
			TNumber:    "T1",
			APIKey:     "key-abcdef",
			Endpoint:   "https://x.openai.azure.com/",
			ModelName:  "gpt-4o",
			APIVersion: "2024-02-01",
		},
	}}
}

func TestValidTNumber(t *testing.T) {
	for _, value := range []string{"T12345", "t99"} {
		if !ValidTNumber(value) {
			t.Errorf("expected %q to be accepted", value)
		}
	}
	for _, value := range []string{"12345", "Tabc", "T", "T12a", ""} {
		if ValidTNumber(value) {
			t.Errorf("expected %q to be rejected", value)
		}
	}
}

func TestValidEndpoint(t *testing.T) {
	for _, value := range []string{"https://x.openai.azure.com/", "http://localhost:8080"} {
		if !ValidEndpoint(value) {
			t.Errorf("expected %q to be accepted", value)
		}
	}
	for _, value := range []string{"ftp://x", "x.com", ""} {
		if ValidEndpoint(value) {
			t.Errorf("expected %q to be rejected", value)
		}
	}
}

func TestValidateListsEveryInvalidField(t *testing.T) {
	err := Configuration{TNumber: "Tabc", Endpoint: "x.com"}.Validate()
	var validationErrs *ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("expected *ValidationErrors, got %v", err)
	}
	for _, field := range []Field{FieldTNumber, FieldEndpoint, FieldAPIKey, FieldAPIVersion, FieldModelName} {
		if _, ok := validationErrs.For(field); !ok {
			t.Errorf("expected error for %s", field)
		}
	}
	if _, ok := validationErrs.For(FieldPackagerMode); ok {
		t.Error("empty packager mode should default to sandbox")
	}
}

func TestValidateAcceptsCompleteConfiguration(t *testing.T) {
	cfg := validConfiguration()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Complete() {
		t.Fatal("expected configuration to be complete")
	}
	if cfg.Normalized().PackagerMode != PackagerSandbox {
		t.Fatalf("expected default sandbox mode, got %q", cfg.Normalized().PackagerMode)
	}
}

func TestValidateRejectsUnknownPackagerMode(t *testing.T) {
	cfg := validConfiguration()
	cfg.PackagerMode = "prod"
	err := cfg.Validate()
	var validationErrs *ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("expected *ValidationErrors, got %v", err)
	}
	if _, ok := validationErrs.For(FieldPackagerMode); !ok {
		t.Fatal("expected packager mode error")
	}
}

func TestPackagerModeFlagValue(t *testing.T) {
	var mode PackagerMode
	if err := mode.Set("DEV"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if mode != PackagerDev {
		t.Fatalf("expected dev, got %q", mode)
	}
	if err := mode.Set("prod"); !errors.Is(err, ErrInvalidPackagerMode) {
		t.Fatalf("expected ErrInvalidPackagerMode, got %v", err)
	}
	if mode != PackagerDev {
		t.Fatalf("failed set should keep previous value, got %q", mode)
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"abc":          "****",
		"sk-test-1234": "****1234",
		"ключ":         "****",
		"sk-ключ":      "****ключ",
		"key-日本語テキスト":  "****テキスト",
	}
	for input, expected := range cases {
		if got := MaskSecret(input); got != expected {
			t.Errorf("MaskSecret(%q) = %q, expected %q", input, got, expected)
		}
		if got := MaskSecret(input); !utf8.ValidString(got) {
			t.Errorf("MaskSecret(%q) = %q is not valid UTF-8", input, got)
		}
	}
}

func TestStatusCompleteRequiresBothFlags(t *testing.T) {
	cases := []struct {
		config, secrets, want bool
	}{
		{false, false, false},
		{true, false, false},
		{false, true, false},
		{true, true, true},
	}
	for _, tc := range cases {
		status := Status{ConfigPresent: tc.config, SecretsPresent: tc.secrets}
		if got := status.Complete(); got != tc.want {
			t.Errorf("Complete() with config=%v secrets=%v = %v, want %v", tc.config, tc.secrets, got, tc.want)
		}
	}
}

func TestStoreSaveValidatesBeforeCallingRemote(t *testing.T) {
	remote := &fakeRemote{}
	store := NewStore(remote)

	err := store.Save(context.Background(), Configuration{TNumber: "12345"})
	var validationErrs *ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(remote.saved) != 0 {
		t.Fatalf("expected no remote save, got %d", len(remote.saved))
	}
}

func TestStoreSaveFailureKeepsLastStatus(t *testing.T) {
	remote := completeRemote()
	store := NewStore(remote)
	before, err := store.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	remote.saveErr = &api.Error{Op: "save config", StatusCode: 500, Message: "disk full"}
	err = store.Save(context.Background(), validConfiguration())
	if err == nil {
		t.Fatal("expected save error")
	}
	if err.Error() != "save configuration: disk full" {
		t.Fatalf("unexpected error %q", err.Error())
	}

	after, ok := store.Last()
	if !ok {
		t.Fatal("expected a last status")
	}
	if after != before {
		t.Fatalf("expected status unchanged, got %+v", after)
	}
}

func TestStoreSaveSendsNormalizedRequest(t *testing.T) {
	remote := &fakeRemote{}
	store := NewStore(remote)

	cfg := validConfiguration()
	cfg.TNumber = "  t99 "
	if err := store.Save(context.Background(), cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(remote.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(remote.saved))
	}
	request := remote.saved[0]
	if request.TNumber != "t99" || request.PackagerMode != "sandbox" {
		t.Fatalf("unexpected request %+v", request)
	}
	status, _ := store.Last()
	if !status.Complete() {
		t.Fatal("expected complete status after save")
	}
}

func TestFormOpensReadOnlyWhenComplete(t *testing.T) {
	form := NewForm(NewStore(completeRemote()))
	if form.State() != FormLoading {
		t.Fatalf("expected loading, got %s", form.State())
	}
	if err := form.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if form.State() != FormViewing {
		t.Fatalf("expected viewing, got %s", form.State())
	}
	if err := form.Set(FieldTNumber, "T2"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := form.Save(context.Background()); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing, got %v", err)
	}
}

func TestFormOpensForEditingWhenIncomplete(t *testing.T) {
	form := NewForm(NewStore(&fakeRemote{}))
	if err := form.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if form.State() != FormEditing {
		t.Fatalf("expected editing, got %s", form.State())
	}
}

func TestFormEditSaveReturnsToViewing(t *testing.T) {
	remote := completeRemote()
	form := NewForm(NewStore(remote))
	if err := form.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := form.Edit(); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := form.Set(FieldTNumber, "T777"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := form.Values().TNumber; got != "T777" {
		t.Fatalf("expected draft T777, got %q", got)
	}
	if err := form.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if form.State() != FormViewing {
		t.Fatalf("expected viewing, got %s", form.State())
	}
	if got := form.Values().TNumber; got != "T777" {
		t.Fatalf("expected saved T777, got %q", got)
	}
	if remote.saved[0].PackagerMode != "dev" {
		t.Fatalf("expected packager mode carried over, got %q", remote.saved[0].PackagerMode)
	}
}

func TestFormSaveFailureStaysEditing(t *testing.T) {
	remote := completeRemote()
	form := NewForm(NewStore(remote))
	if err := form.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := form.Edit(); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := form.Set(FieldEndpoint, "x.com"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := form.Save(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if form.State() != FormEditing {
		t.Fatalf("expected editing, got %s", form.State())
	}
	if form.Err() == nil {
		t.Fatal("expected form error")
	}
	if got := form.Values().Endpoint; got != "x.com" {
		t.Fatalf("expected draft kept, got %q", got)
	}
}

func TestFormCancelReloadsFromRemote(t *testing.T) {
	remote := completeRemote()
	form := NewForm(NewStore(remote))
	if err := form.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := form.Edit(); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := form.Set(FieldTNumber, "T999"); err != nil {
		t.Fatalf("set: %v", err)
	}
	remote.status.Secrets.TNumber = "T2"

	if err := form.Cancel(context.Background()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if form.State() != FormViewing {
		t.Fatalf("expected viewing, got %s", form.State())
	}
	if got := form.Values().TNumber; got != "T2" {
		t.Fatalf("expected remote value T2, got %q", got)
	}
	if remote.checks != 2 {
		t.Fatalf("expected cancel to reload from remote, got %d checks", remote.checks)
	}
}

func TestFormLoadFailureStaysLoading(t *testing.T) {
	form := NewForm(NewStore(&fakeRemote{checkErr: errors.New("connection refused")}))
	if err := form.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if form.State() != FormLoading {
		t.Fatalf("expected loading, got %s", form.State())
	}
	if err := form.Edit(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}
