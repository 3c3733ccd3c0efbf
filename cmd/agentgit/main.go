// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command agentgit is a small demo CLI over the session façade: it drives
// branches, checkpoints, recordings and comparisons without a host agent
// framework attached, useful for exploring a project's .agentgit store by
// hand.
//
// Examples:
//
//	agentgit branch create --user alice --session demo --name main
//	agentgit checkpoint create --user alice --session demo --label "before refactor"
//	agentgit record start --user alice --session demo --name baseline-run
//	agentgit compare recordings --baseline <id> --replay <id>
//	agentgit serve --addr :8090
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/rohithputha/agentgraph/config"
	"github.com/rohithputha/agentgraph/httpapi"
	"github.com/rohithputha/agentgraph/internal/obslog"
	"github.com/rohithputha/agentgraph/model"
	"github.com/rohithputha/agentgraph/session"
)

// CLI is the root kong command, mirroring the lineage's pattern of a
// top-level flag set plus one struct field per subcommand.
type CLI struct {
	Config string `help:"Path to an agentgit.yaml config file." type:"path"`
	Env    string `help:"Path to a .env file to load before config." type:"path"`

	Branch     BranchCmd     `cmd:"" help:"Manage branches."`
	Checkpoint CheckpointCmd `cmd:"" help:"Create and inspect checkpoints."`
	Record     RecordCmd     `cmd:"" help:"Control recordings."`
	Compare    CompareCmd    `cmd:"" help:"Compare recordings or live branches."`
	Serve      ServeCmd      `cmd:"" help:"Serve the read-only inspection API."`
	Version    VersionCmd    `cmd:"" help:"Print version information."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("agentgit"),
		kong.Description("Execution tracer and checkpoint engine for agent frameworks."),
		kong.UsageOnError(),
	)
	err := kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}

// VersionCmd prints a fixed version line ("agentgit (dev build)"); it does
// not read the module's build info.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("agentgit (dev build)")
	return nil
}

// openSession loads config/env and wires a session.Session, the shared
// setup every data-touching subcommand needs before it can do anything.
func (c *CLI) openSession(ctx context.Context) (*session.Session, *sql.DB, error) {
	if err := config.LoadDotEnv(c.Env); err != nil {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level, err := obslog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		return nil, nil, err
	}
	var logWriter *os.File = os.Stderr
	if cfg.Logger.File != "" {
		f, err := os.OpenFile(cfg.Logger.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logWriter = f
	}
	obslog.SetDefault(obslog.New(level, logWriter, cfg.Logger.Format))
	slog.SetDefault(obslog.Default())

	if err := os.MkdirAll(cfg.DotDir(), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", cfg.DotDir(), err)
	}

	driver := driverForDialect(cfg.Storage.Dialect)
	db, err := sql.Open(driver, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", cfg.Storage.Dialect, err)
	}

	sess, err := session.Open(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open session: %w", err)
	}
	return sess, db, nil
}

func driverForDialect(dialect string) string {
	switch dialect {
	case "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	default:
		return "sqlite3"
	}
}

// BranchCmd groups branch subcommands.
type BranchCmd struct {
	Create BranchCreateCmd `cmd:"" help:"Create a new active branch."`
	Switch BranchSwitchCmd `cmd:"" help:"Switch the owner's active branch."`
	List   BranchListCmd   `cmd:"" help:"List an owner's branches."`
}

type ownerFlags struct {
	User    string `help:"Owner user id." required:""`
	Session string `help:"Owner session id." required:""`
}

type BranchCreateCmd struct {
	ownerFlags
	Name      string `help:"Branch name." required:""`
	From      string `help:"Base this branch off an existing branch's head instead of starting empty."`
	Intent    string `help:"Free-text description of what this branch is for."`
	CreatedBy string `help:"Caller kind: human_cli, human_ui, agent_tool, system." default:"human_cli"`
}

func (c *BranchCreateCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	var branch *model.Branch
	if c.From != "" {
		branch, err = sess.CreateBranchFrom(ctx, c.User, c.Session, c.From, c.Name, c.Intent, c.CreatedBy)
	} else {
		branch, err = sess.CreateBranch(ctx, c.User, c.Session, c.Name, c.Intent, c.CreatedBy)
	}
	if err != nil {
		return err
	}
	return printJSON(branch)
}

type BranchSwitchCmd struct {
	ownerFlags
	Name string `arg:"" help:"Branch name to activate."`
}

func (c *BranchSwitchCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	branch, err := sess.SwitchBranch(ctx, c.User, c.Session, c.Name)
	if err != nil {
		return err
	}
	return printJSON(branch)
}

type BranchListCmd struct {
	ownerFlags
}

func (c *BranchListCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	branches, err := sess.ListBranches(ctx, c.User, c.Session)
	if err != nil {
		return err
	}
	return printJSON(branches)
}

// CheckpointCmd groups checkpoint subcommands.
type CheckpointCmd struct {
	Create  CheckpointCreateCmd  `cmd:"" help:"Snapshot the owner's workspace."`
	Restore CheckpointRestoreCmd `cmd:"" help:"Restore a checkpoint into the owner's workspace."`
	Peek    CheckpointPeekCmd    `cmd:"" help:"List the files a checkpoint captured."`
	Diff    CheckpointDiffCmd    `cmd:"" help:"Diff two checkpoints."`
}

type CheckpointCreateCmd struct {
	ownerFlags
	Label string `help:"Optional human label for this checkpoint."`
}

func (c *CheckpointCreateCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	var label *string
	if c.Label != "" {
		label = &c.Label
	}
	ckpt, err := sess.CreateCheckpoint(ctx, c.User, c.Session, model.NewDocument(nil), nil, label)
	if err != nil {
		return err
	}
	return printJSON(ckpt)
}

type CheckpointRestoreCmd struct {
	ownerFlags
	Hash string `arg:"" help:"Checkpoint hash to restore."`
}

func (c *CheckpointRestoreCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	return sess.Restore(ctx, c.User, c.Session, c.Hash)
}

type CheckpointPeekCmd struct {
	Hash string `arg:"" help:"Checkpoint hash."`
}

func (c *CheckpointPeekCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	files, err := sess.Peek(ctx, c.Hash)
	if err != nil {
		return err
	}
	return printJSON(files)
}

type CheckpointDiffCmd struct {
	A string `arg:"" help:"First checkpoint hash."`
	B string `arg:"" help:"Second checkpoint hash."`
}

func (c *CheckpointDiffCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	diffs, err := sess.DiffCheckpoints(ctx, c.A, c.B)
	if err != nil {
		return err
	}
	return printJSON(diffs)
}

// RecordCmd groups recording subcommands.
type RecordCmd struct {
	Start    RecordStartCmd    `cmd:"" help:"Begin a recording."`
	Complete RecordCompleteCmd `cmd:"" help:"Mark a recording finished."`
	Baseline RecordBaselineCmd `cmd:"" help:"Tag a recording's final node as a baseline."`
}

type RecordStartCmd struct {
	ownerFlags
	Name string `help:"Recording name." required:""`
}

func (c *RecordStartCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	rec, err := sess.StartRecording(ctx, c.User, c.Session, c.Name, model.NewDocument(nil))
	if err != nil {
		return err
	}
	return printJSON(rec)
}

type RecordCompleteCmd struct {
	ID string `arg:"" help:"Recording id."`
}

func (c *RecordCompleteCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	return sess.CompleteRecording(ctx, c.ID)
}

type RecordBaselineCmd struct {
	ID  string `arg:"" help:"Recording id."`
	Tag string `arg:"" help:"Baseline tag name."`
}

func (c *RecordBaselineCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	return sess.SetBaseline(ctx, c.ID, c.Tag)
}

// CompareCmd groups comparison subcommands.
type CompareCmd struct {
	Recordings CompareRecordingsCmd `cmd:"" help:"Compare two recordings."`
	Paths      ComparePathsCmd      `cmd:"" help:"Compare two live branches."`
}

type CompareRecordingsCmd struct {
	Baseline string `help:"Baseline recording id." required:""`
	Replay   string `help:"Replay recording id." required:""`
}

func (c *CompareRecordingsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	result, err := sess.CompareRecordings(ctx, c.Baseline, c.Replay)
	if err != nil {
		return err
	}
	return printComparison(result)
}

type ComparePathsCmd struct {
	ownerFlags
	BranchA string `help:"First branch name." required:""`
	BranchB string `help:"Second branch name." required:""`
}

func (c *ComparePathsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	result, err := sess.ComparePaths(ctx, c.User, c.Session, c.BranchA, c.BranchB)
	if err != nil {
		return err
	}
	return printComparison(result)
}

// ServeCmd runs the read-only inspection HTTP surface until interrupted.
type ServeCmd struct {
	Addr string `help:"Address to listen on." default:":8090"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("agentgit: shutting down")
		cancel()
	}()

	sess, db, err := cli.openSession(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer sess.Close(ctx)

	srv := &http.Server{Addr: c.Addr, Handler: httpapi.NewRouter(sess, nil)}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	slog.Info("agentgit: serving inspection API", "addr", c.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printComparison prints a compact pass/fail summary to a terminal (when
// stdout is one) ahead of the full JSON body, so a human running this
// interactively doesn't have to scan the whole document for the verdict.
func printComparison(result *model.ComparisonResult) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		verdict := "PASS"
		if !result.OverallPass {
			verdict = "FAIL"
		}
		fmt.Printf("%s  matched=%d diverged=%d added=%d removed=%d cascades=%d\n",
			verdict, result.Matched, result.Diverged, result.Added, result.Removed, result.CascadeCount)
	}
	return printJSON(result)
}
