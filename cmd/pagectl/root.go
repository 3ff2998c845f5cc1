package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const requestTimeout = 15 * time.Second

// app 命令共享的运行时状态，在 PersistentPreRunE 中初始化
type app struct {
	configDir string
	verbose   bool

	cfg     config
	client  *http.Client
	logger  *zap.Logger
	session *session.Session
	in      io.Reader
}

func newApp() *app {
	return &app{
		configDir: defaultConfigDir(),
		client:    &http.Client{Timeout: requestTimeout},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pagectl",
		Short:         "Command-line client for the campaign page builder",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configDir, "config-dir", a.configDir, "configuration directory")
	flags.String("server", defaultServer, "page builder server URL")
	flags.String("auth-url", "", "authentication endpoint (default <server>/auth/login)")
	flags.String("token-file", "", "where the session token is stored")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newPagesCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configDir, cmd)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = zap.NewNop()
	if a.verbose {
		if a.logger, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	if a.in == nil {
		a.in = cmd.InOrStdin()
	}

	a.session = session.New(session.NewFileTokenStore(cfg.TokenFile), a.logger)
	a.session.InitFromStorage()
	return nil
}

// ========== login ==========

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				var err error
				if email, password, err = promptCredentials(a.in, cmd.OutOrStdout(), email, password); err != nil {
					return err
				}
			}

			auth := session.NewHTTPAuthenticator(a.cfg.AuthURL, a.client)
			token, err := auth.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := a.session.SetOnLogin(token); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			user, _ := a.session.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

// promptCredentials 从输入读取缺失的凭据（每项一行）
func promptCredentials(in io.Reader, out io.Writer, email, password string) (string, string, error) {
	reader := bufio.NewReader(in)
	readLine := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	var err error
	if email == "" {
		if email, err = readLine("Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = readLine("Password: "); err != nil {
			return "", "", err
		}
	}
	if email == "" || password == "" {
		return "", "", domainErrors.ErrInvalidCredentials
	}
	return email, password, nil
}

// ========== logout / whoami ==========

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.ClearOnLogout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.session.User()
			if err != nil {
				return errors.New("not logged in, run `pagectl login` first")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
}

// ========== pages ==========

type pageSummary struct {
	PageID    string    `json:"pageId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newPagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List your campaign pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.IsAuthenticated() {
				return errors.New("not logged in, run `pagectl login` first")
			}

			pages, err := a.listPages(cmd.Context())
			if err != nil {
				return err
			}
			if len(pages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pages")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tVERSION\tUPDATED")
			for _, p := range pages {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.PageID, p.Title, p.Status, p.Version, p.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func (a *app) listPages(ctx context.Context) ([]pageSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.Server+"/api/pages", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.session.Token())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// 服务端拒绝 token 时清除本地会话
		if err := a.session.ClearOnLogout(); err != nil {
			a.logger.Warn("clear session failed", zap.Error(err))
		}
		return nil, errors.New("session expired, run `pagectl login` again")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list pages: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Pages []pageSummary `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode pages: %w", err)
	}
	a.logger.Debug("pages listed", zap.Int("count", len(out.Pages)))
	return out.Pages, nil
}
