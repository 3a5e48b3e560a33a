package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tickerdesk/tickerdesk/internal/config"
	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
	"github.com/tickerdesk/tickerdesk/internal/observability"
)

var (
	loginAPIKey   string
	loginNoVerify bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API key after verifying it",
	Long: `Store an API key in the config file.

The key is verified against the platform before it is saved unless
--no-verify is given. Without --api-key the key is read from stdin.
Use the global --api-url flag to store a non-default platform URL.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationConfig: configMayBeMissing},
	RunE:        runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginAPIKey, "api-key", "", "API key (prompted when omitted)")
	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false, "save without checking the key against the platform")
}

func runLogin(cmd *cobra.Command, args []string) error {
	state, err := currentApp()
	if err != nil {
		return err
	}

	key := strings.TrimSpace(loginAPIKey)
	if key == "" {
		key, err = promptForValue(cmd.InOrStdin(), cmd.ErrOrStderr(), "API key: ")
		if err != nil {
			return fmt.Errorf("read api key: %w", err)
		}
	}
	if key == "" {
		return errwrap.NewInvalidInputError("api key is required")
	}

	if !loginNoVerify {
		apiCfg := state.cfg.APIConfig()
		apiCfg.APIKey = key
		svc, err := buildService(state, apiCfg)
		if err != nil {
			return err
		}
		account, err := svc.VerifyCredentials(commandContext(cmd))
		if err != nil {
			return err
		}
		observability.CLILogger.Debug("Credentials verified",
			zap.String("account_id", account.ID),
			zap.String("plan", account.Plan))
		if account.Email != "" {
			printMessage(cmd, "Authenticated as %s", account.Email)
		}
	}

	if err := state.store.SetCredentials(key, apiURLFlag); err != nil {
		return errwrap.WrapInvalidInput(err, err.Error())
	}
	if err := state.store.Save(); err != nil {
		return err
	}

	printMessage(cmd, "Saved API key %s to %s", config.MaskSecret(key), state.store.Path())
	return nil
}

// promptForValue writes prompt to out and reads one line from in.
func promptForValue(in io.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(in)
	value, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
