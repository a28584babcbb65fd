package urp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

type CLIConfig struct {
	ConfigPath        string
	Verbose           bool
	JSON              bool
	Apply             bool
	Nvim              bool
	IncludeIncomplete bool
	NoAnimation       bool
	Completion        string
	Known             []string
	Fix               bool
	Plain             bool
}

var cfg = &CLIConfig{}

var rootCmd = &cobra.Command{
	Use:   "urp [file]",
	Short: "Parse a language model reply into files.",
	Long: `Parse a language model reply (JSON object or comment markers) from a file,
stdin (pipe) or the clipboard, report what it contains, and optionally apply it.

Example: pbpaste | urp --apply`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Completion != "" {
			return handleCompletion(cmd)
		}

		conf, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		res, err := parseSource(NewParser(conf, WithLogger(logger)), args)
		if err != nil {
			return err
		}

		if cfg.JSON {
			return printJSON(res)
		}
		fmt.Print(FormatResponse(res))
		if !cfg.Apply {
			return nil
		}

		app, err := NewApp(Options{
			UseNvim:           cfg.Nvim,
			IncludeIncomplete: cfg.IncludeIncomplete,
			Logger:            logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		fmt.Println()
		return NewApplyView(app, res, cfg.NoAnimation).Run(cmd.Context())
	},
}

var filesCmd = &cobra.Command{
	Use:   "files [file]",
	Short: "List every path the reply mentions, even if it does not parse.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		text, err := NewSourceProvider().GetContent(args)
		if err != nil {
			return err
		}
		paths := NewParser(conf, WithLogger(logger)).ExtractFileList(text)
		if cfg.JSON {
			return printJSON(paths)
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [file]",
	Short: "Classify files in a partial reply as complete, streaming or pending.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		text, err := NewSourceProvider().GetContent(args)
		if err != nil {
			return err
		}
		st := NewParser(conf, WithLogger(logger)).StreamingStatus(text, cfg.Known)
		if cfg.JSON {
			return printJSON(st)
		}
		fmt.Print(FormatStatus(st))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Run the advisory syntax checks over every file in the reply.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		res, err := parseSource(NewParser(conf, WithLogger(logger)), args)
		if err != nil {
			return err
		}

		validator := NewSyntaxValidator(conf)
		rewriter := NewRewriter(conf)
		report := make(map[string][]SyntaxIssue)
		paths := make([]string, 0, len(res.Files))
		for p := range res.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			content := res.Files[p]
			if cfg.Fix {
				fixed, rewrites := rewriter.Rewrite(p, content)
				if !cfg.JSON {
					fmt.Print(FormatRewrites(p, rewrites))
				}
				content = fixed
			}
			if issues := validator.Validate(p, content); len(issues) > 0 {
				report[p] = issues
				if !cfg.JSON {
					fmt.Print(FormatIssues(p, issues))
				}
			}
		}
		if cfg.JSON {
			return printJSON(report)
		}
		if len(report) == 0 {
			fmt.Println(successStyle.Render("No issues found"))
		}
		return nil
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Follow a reply arriving on stdin and show per-file progress.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		parser := NewParser(conf, WithLogger(logger))

		var text string
		if cfg.Plain {
			text, err = RunPlainStream(os.Stdin, os.Stdout, parser)
		} else {
			text, err = RunStream(cmd.Context(), os.Stdin, os.Stdout, parser)
		}
		if err != nil {
			return err
		}

		res, err := parser.Parse(text)
		if err != nil {
			fmt.Fprint(os.Stderr, FormatError(err))
			return err
		}
		fmt.Print(FormatResponse(res))
		return nil
	},
}

func loadRuntime() (Config, *slog.Logger, error) {
	conf, err := LoadConfig(cfg.ConfigPath)
	if err != nil {
		return Config{}, nil, err
	}
	level := conf.SlogLevel()
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return conf, logger, nil
}

func parseSource(p *Parser, args []string) (*ParsedResponse, error) {
	text, err := NewSourceProvider().GetContent(args)
	if err != nil {
		return nil, err
	}
	res, err := p.Parse(text)
	if err != nil {
		fmt.Fprint(os.Stderr, FormatError(err))
		return nil, err
	}
	return res, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func handleCompletion(cmd *cobra.Command) error {
	switch cfg.Completion {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return fmt.Errorf("unsupported shell for completion: %s", cfg.Completion)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigPath, "config", DefaultConfigFile, "Config file")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&cfg.JSON, "json", false, "Print JSON instead of a report")

	rootCmd.Flags().StringVar(&cfg.Completion, "completion", "", "Generate completion script")
	rootCmd.Flags().BoolVarP(&cfg.Apply, "apply", "a", false, "Write the files to disk")
	rootCmd.Flags().BoolVar(&cfg.Nvim, "nvim", false, "Apply through Neovim buffers")
	rootCmd.Flags().BoolVar(&cfg.IncludeIncomplete, "include-incomplete", false, "Also apply files cut off mid-stream")
	rootCmd.Flags().BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable spinner")

	statusCmd.Flags().StringSliceVar(&cfg.Known, "known", nil, "Paths already known to be coming")
	checkCmd.Flags().BoolVar(&cfg.Fix, "fix", false, "Apply the mechanical rewrites before checking")
	streamCmd.Flags().BoolVar(&cfg.Plain, "plain", false, "Print status lines instead of a live view")

	rootCmd.AddCommand(filesCmd, statusCmd, checkCmd, streamCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SilenceUsage = true
}

func Execute() error {
	return rootCmd.Execute()
}
