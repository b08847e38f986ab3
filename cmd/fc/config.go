package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/amonks/fileconverter/internal/editor"
	"github.com/amonks/fileconverter/internal/progress"
	"github.com/amonks/fileconverter/internal/ui"
	"github.com/amonks/fileconverter/settings"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the conversion service configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration stored on the service",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configShowJSON bool

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the configuration stored on the service",
	Long: `Change the configuration stored on the service.

A complete configuration is read-only: pass --edit to change it. Every
field is validated locally before anything is sent. Pass --api-key - to
type the key at a prompt instead of on the command line.`,
	Args: cobra.NoArgs,
	RunE: runConfigSet,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration stored on the service in $EDITOR",
	Long: `Edit the configuration stored on the service in $EDITOR.

The configuration opens as TOML with the API key masked; leave it masked
to keep the current key.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var (
	configSetEdit         bool
	configSetTNumber      string
	configSetEndpoint     string
	configSetAPIKey       string
	configSetAPIVersion   string
	configSetModel        string
	configSetPackagerMode settings.PackagerMode
)

// configFieldFlags maps each field flag of config set to its field.
var configFieldFlags = []struct {
	flag  string
	field settings.Field
	value *string
}{
	{flag: "t-number", field: settings.FieldTNumber, value: &configSetTNumber},
	{flag: "endpoint", field: settings.FieldEndpoint, value: &configSetEndpoint},
	{flag: "api-key", field: settings.FieldAPIKey, value: &configSetAPIKey},
	{flag: "api-version", field: settings.FieldAPIVersion, value: &configSetAPIVersion},
	{flag: "model", field: settings.FieldModelName, value: &configSetModel},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configEditCmd)

	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "Output as JSON")

	configSetCmd.Flags().BoolVar(&configSetEdit, "edit", false, "Allow changes to a complete configuration")
	configSetCmd.Flags().StringVar(&configSetTNumber, "t-number", "", "T-Number (T followed by digits)")
	configSetCmd.Flags().StringVar(&configSetEndpoint, "endpoint", "", "Azure OpenAI endpoint URL")
	configSetCmd.Flags().StringVar(&configSetAPIKey, "api-key", "", "API key, or - to prompt")
	configSetCmd.Flags().StringVar(&configSetAPIVersion, "api-version", "", "API version")
	configSetCmd.Flags().StringVar(&configSetModel, "model", "", "Model name")
	configSetCmd.Flags().Var(&configSetPackagerMode, "packager-mode", "Packager mode (sandbox, dev)")
}

// configOutput is the JSON shape of config show. The API key is masked.
type configOutput struct {
	ConfigPresent  bool   `json:"config_present"`
	SecretsPresent bool   `json:"secrets_present"`
	Complete       bool   `json:"complete"`
	TNumber        string `json:"t_number"`
	Endpoint       string `json:"endpoint"`
	APIKey         string `json:"api_key"`
	APIVersion     string `json:"api_version"`
	ModelName      string `json:"model_name"`
	PackagerMode   string `json:"packager_mode"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	status, err := env.settingsStore().Check(cmd.Context())
	if err != nil {
		return err
	}
	masked := status.Configuration.Masked()

	if configShowJSON {
		return encodeJSON(env.stdout, configOutput{
			ConfigPresent:  status.ConfigPresent,
			SecretsPresent: status.SecretsPresent,
			Complete:       status.Complete(),
			TNumber:        masked.TNumber,
			Endpoint:       masked.Endpoint,
			APIKey:         masked.APIKey,
			APIVersion:     masked.APIVersion,
			ModelName:      masked.ModelName,
			PackagerMode:   string(masked.PackagerMode),
		})
	}

	builder := ui.NewTableBuilder([]string{"FIELD", "VALUE"}, len(settings.Fields()))
	for _, field := range settings.Fields() {
		value := masked.Get(field)
		if value == "" {
			value = "-"
		}
		builder.AddRow(field.Label(), ui.TruncateTableCell(value))
	}
	fmt.Fprint(env.stdout, builder.String())

	if status.Complete() {
		progress.Success(env.stdout, "Configuration complete")
	} else {
		progress.Warning(env.stdout, "Configuration incomplete; run `fc config set` to finish it")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	if !hasChangedFlags(cmd, "t-number", "endpoint", "api-key", "api-version", "model", "packager-mode") {
		return fmt.Errorf("nothing to change; pass at least one field flag (see fc config set --help)")
	}

	if configSetAPIKey == "-" {
		secret, err := ui.ReadSecret(os.Stdin, env.stderr, "API key: ")
		if err != nil {
			return err
		}
		configSetAPIKey = secret
	}

	ctx := cmd.Context()
	form := settings.NewForm(env.settingsStore())
	if err := form.Load(ctx); err != nil {
		return err
	}
	if form.State() == settings.FormViewing {
		if !configSetEdit {
			return exitError{code: exitGeneric, err: fmt.Errorf("%w; pass --edit to change it", settings.ErrReadOnly)}
		}
		if err := form.Edit(); err != nil {
			return err
		}
	}

	for _, entry := range configFieldFlags {
		if !cmd.Flags().Changed(entry.flag) {
			continue
		}
		if err := form.Set(entry.field, *entry.value); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("packager-mode") {
		if err := form.Set(settings.FieldPackagerMode, string(configSetPackagerMode)); err != nil {
			return err
		}
	}

	return saveConfigForm(cmd, env, form)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	if os.Getenv("EDITOR") == "" && !editor.IsInteractive() {
		return fmt.Errorf("config edit needs a terminal or $EDITOR; use fc config set instead")
	}

	form := settings.NewForm(env.settingsStore())
	if err := form.Load(cmd.Context()); err != nil {
		return err
	}
	if err := form.Edit(); err != nil {
		return err
	}

	current := form.Values()
	edited, err := editor.EditConfiguration(current)
	if errors.Is(err, editor.ErrEmpty) {
		progress.Info(env.stderr, "Configuration unchanged")
		return nil
	}
	if err != nil {
		return err
	}

	for _, field := range settings.Fields() {
		value := edited.Get(field)
		if value == current.Get(field) {
			continue
		}
		if err := form.Set(field, value); err != nil {
			return err
		}
	}
	return saveConfigForm(cmd, env, form)
}

func saveConfigForm(cmd *cobra.Command, env *environment, form *settings.Form) error {
	if err := form.Save(cmd.Context()); err != nil {
		var invalid *settings.ValidationErrors
		if errors.As(err, &invalid) {
			for _, fieldErr := range invalid.Errors {
				progress.Error(env.stderr, "%s", fieldErr.Message)
			}
			return silentExit(exitValidation)
		}
		return err
	}

	env.logger.Debug().Str("state", form.State().String()).Msg("configuration saved")
	progress.Success(env.stdout, "Configuration saved")
	return nil
}
