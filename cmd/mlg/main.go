package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/danghamo/mlg/internal/app/command"
	"github.com/danghamo/mlg/internal/app/handler"
	"github.com/danghamo/mlg/internal/app/query"
	"github.com/danghamo/mlg/internal/backup"
	"github.com/danghamo/mlg/internal/domain/shared"
	"github.com/danghamo/mlg/internal/world"
	"github.com/danghamo/mlg/pkg/config"
	"github.com/danghamo/mlg/pkg/logger"
)

const usage = `usage: mlg <command> [flags] [args]

commands:
  spawn  [x z | --block x,y,z]   show the spawn or move it into a chunk or block
  forced [x,z ...]               show or replace the forced chunks (--dimension)
  chunks <region-x> <region-z>   list chunks present in a region file (--dimension, --absolute)
  chunks --chunk x,z             show the region file and slot of a world chunk
  grid   <x> <z> <width> <height> print spawn chunks covering a rectangle
  reset                          restore every file changed by earlier commands

Changes made by earlier commands stay backed up until reset.
`

// Exit statuses.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitConflict = 3
)

// app bundles what a subcommand needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	session  *world.Session
	commands command.CommandHandler
	queries  query.QueryHandler
	out      io.Writer
}

type subcommand struct {
	needsWorld bool
	flags      func(fs *pflag.FlagSet)
	run        func(ctx context.Context, a *app, fs *pflag.FlagSet) error
}

var subcommands = map[string]subcommand{
	"spawn": {
		needsWorld: true,
		flags: func(fs *pflag.FlagSet) {
			fs.String("block", "", "exact spawn block as x,y,z")
		},
		run: runSpawn,
	},
	"forced": {
		needsWorld: true,
		flags: func(fs *pflag.FlagSet) {
			fs.StringP("dimension", "d", "overworld", "overworld, nether or end")
			fs.Bool("clear", false, "remove all forced chunks")
		},
		run: runForced,
	},
	"chunks": {
		needsWorld: true,
		flags: func(fs *pflag.FlagSet) {
			fs.StringP("dimension", "d", "overworld", "overworld, nether or end")
			fs.Bool("absolute", false, "print world chunk coordinates instead of region slots")
			fs.String("chunk", "", "locate a single world chunk given as x,z")
		},
		run: runChunks,
	},
	"grid": {
		run: runGrid,
	},
	"reset": {
		needsWorld: true,
		run:        runReset,
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout))
}

func run(ctx context.Context, args []string, out io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(os.Stderr, usage)
		return exitUsage
	}

	name := args[0]
	sub, ok := subcommands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", name, usage)
		return exitUsage
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	config.BindFlags(fs)
	if sub.flags != nil {
		sub.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if !sub.needsWorld && !fs.Changed("world") {
		// grid only reads configuration; any directory satisfies validation
		_ = fs.Set("world", ".")
	}
	if name == "reset" && !fs.Changed("stale-backup") {
		// reset exists to consume earlier backups, whatever the config says
		_ = fs.Set("stale-backup", string(backup.ConflictResume))
	}

	cfg, log, err := config.Initialize(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		return exitFailure
	}
	defer func() {
		_ = log.Sync()
	}()

	a := &app{cfg: cfg, log: log, out: out}
	if sub.needsWorld {
		a.session, err = world.Open(cfg.World.Path, log, sessionOptions(cfg)...)
		if err != nil {
			log.Error("Failed to open world", zap.String("world", cfg.World.Path), zap.Error(err))
			return exitStatus(err)
		}
		a.commands = handler.NewWorldCommandHandler(a.session, log)
		a.queries = handler.NewWorldQueryHandler(a.session, log)
	} else {
		a.queries = handler.NewWorldQueryHandler(nil, log)
	}

	if err := sub.run(ctx, a, fs); err != nil {
		log.Error("Command failed", zap.String("command", name), zap.Error(err))
		return exitStatus(err)
	}
	return exitOK
}

// exitStatus separates unresolved backups, which need a reset or a different
// stale backup policy, from every other failure.
func exitStatus(err error) int {
	if shared.HasCode(err, shared.ErrCodeBackupConflict) {
		return exitConflict
	}
	return exitFailure
}

func sessionOptions(cfg *config.Config) []world.Option {
	return []world.Option{
		world.WithBackupSuffix(cfg.World.BackupSuffix),
		world.WithRegionExtension(cfg.World.RegionExtension),
		world.WithStaleBackupPolicy(backup.ConflictPolicy(strings.ToLower(cfg.World.StaleBackup))),
		world.WithVerifyCopies(cfg.World.VerifyCopies),
	}
}

func runSpawn(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	block, _ := fs.GetString("block")
	switch {
	case block != "":
		v, err := parseInts(block, 3)
		if err != nil {
			return err
		}
		pos := shared.NewBlockPos(int32(v[0]), int32(v[1]), int32(v[2]))
		if err := a.commands.Handle(ctx, command.NewSetSpawnCommand(pos)); err != nil {
			return err
		}
	case fs.NArg() == 2:
		v, err := parseInts(strings.Join(fs.Args(), ","), 2)
		if err != nil {
			return err
		}
		chunk := shared.NewChunkPos(int32(v[0]), int32(v[1]))
		if err := a.commands.Handle(ctx, command.NewSetSpawnChunkCommand(chunk)); err != nil {
			return err
		}
	case fs.NArg() != 0:
		return shared.ErrInvalidArgumentf("spawn takes a chunk x and z, got %d arguments", fs.NArg())
	}

	spawn, err := a.queries.Handle(ctx, query.NewGetSpawnQuery())
	if err != nil {
		return err
	}
	return a.print(spawn)
}

func runForced(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	dim, err := dimensionFlag(fs)
	if err != nil {
		return err
	}

	clearAll, _ := fs.GetBool("clear")
	if clearAll || fs.NArg() > 0 {
		chunks := make([]shared.ChunkPos, 0, fs.NArg())
		for _, arg := range fs.Args() {
			v, err := parseInts(arg, 2)
			if err != nil {
				return err
			}
			chunks = append(chunks, shared.NewChunkPos(int32(v[0]), int32(v[1])))
		}
		if err := a.commands.Handle(ctx, command.NewSetForcedChunksCommand(dim, chunks)); err != nil {
			return err
		}
	}

	forced, err := a.queries.Handle(ctx, query.NewGetForcedChunksQuery(dim))
	if err != nil {
		return err
	}
	return a.print(forced)
}

func runChunks(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	dim, err := dimensionFlag(fs)
	if err != nil {
		return err
	}
	if chunk, _ := fs.GetString("chunk"); chunk != "" {
		if fs.NArg() != 0 {
			return shared.ErrInvalidArgumentf("--chunk takes no region arguments, got %d", fs.NArg())
		}
		v, err := parseInts(chunk, 2)
		if err != nil {
			return err
		}
		info, err := a.queries.Handle(ctx, query.NewLocateChunkQuery(shared.NewChunkPos(int32(v[0]), int32(v[1])), dim))
		if err != nil {
			return err
		}
		return a.print(info)
	}

	if fs.NArg() != 2 {
		return shared.ErrInvalidArgumentf("chunks takes a region x and z, got %d arguments", fs.NArg())
	}
	v, err := parseInts(strings.Join(fs.Args(), ","), 2)
	if err != nil {
		return err
	}

	absolute, _ := fs.GetBool("absolute")
	region := shared.NewRegionPos(int32(v[0]), int32(v[1]))
	chunks, err := a.queries.Handle(ctx, query.NewAvailableChunksQuery(region, dim, absolute))
	if err != nil {
		return err
	}
	return a.print(chunks)
}

func runGrid(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	if fs.NArg() != 4 {
		return shared.ErrInvalidArgumentf("grid takes x, z, width and height, got %d arguments", fs.NArg())
	}
	v, err := parseInts(strings.Join(fs.Args(), ","), 4)
	if err != nil {
		return err
	}

	points, err := a.queries.Handle(ctx, query.NewGenerateSpawnpointsQuery(v[0], v[1], v[2], v[3], a.cfg.Grid.Increment))
	if err != nil {
		return err
	}
	return a.print(points)
}

func runReset(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	pending := slices.DeleteFunc(a.session.TrackedFiles(), func(f world.TrackedFile) bool {
		return !f.BackedUp
	})
	if err := a.commands.Handle(ctx, command.NewResetChangesCommand()); err != nil {
		return err
	}
	return a.print(pending)
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dimensionFlag(fs *pflag.FlagSet) (world.Dimension, error) {
	name, _ := fs.GetString("dimension")
	return world.ParseDimension(name)
}

// parseInts splits a comma separated list of exactly n integers.
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, shared.ErrInvalidArgumentf("expected %d comma separated integers, got %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, shared.ErrInvalidArgumentf("%q is not a 32-bit integer", p)
		}
		out[i] = int(v)
	}
	return out, nil
}
