package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"stakevault/config"
	"stakevault/core/events"
	"stakevault/crypto"
	"stakevault/native/staking"
	"stakevault/observability/logging"
	"stakevault/rpc"
	"stakevault/state"
	"stakevault/storage"
	"stakevault/token"
)

const genesisMarkerKey = "stakevault/genesis"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("STAKEVAULT_ENV"))
	logger := logging.Setup("stakevaultd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.ServiceEnv != "" && env == "" {
		logger = logging.Setup("stakevaultd", cfg.ServiceEnv)
	}

	custody, err := cfg.Custody()
	if err != nil {
		logger.Error("invalid custody address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	stakeLedger, err := token.NewBookLedger(db, "STK", custody)
	if err != nil {
		logger.Error("failed to open stake-token ledger", slog.Any("error", err))
		os.Exit(1)
	}
	rewardLedger, err := token.NewBookLedger(db, "RWD", custody)
	if err != nil {
		logger.Error("failed to open reward-token ledger", slog.Any("error", err))
		os.Exit(1)
	}

	if err := applyGenesis(db, cfg, stakeLedger, logger); err != nil {
		logger.Error("failed to apply genesis allocations", slog.Any("error", err))
		os.Exit(1)
	}

	manager := state.NewManager(db)
	for _, module := range cfg.PausedModules {
		manager.SetPaused(strings.TrimSpace(module), true)
	}

	engine := staking.NewEngine(stakeLedger, rewardLedger, staking.Params{
		RewardRatePerHour: cfg.RewardRatePerHour,
	})
	engine.SetState(manager)
	engine.SetPauses(manager)
	engine.SetEmitter(logEmitter{logger: logger})

	server := rpc.NewServer(engine, stakeLedger, rewardLedger, logger)
	logger.Info("stakevault daemon ready",
		slog.String("rpc", cfg.RPCAddress),
		slog.Uint64("rewardRatePerHour", cfg.RewardRatePerHour),
		slog.String("custody", custody.String()),
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// applyGenesis mints the configured stake-token allocations exactly once per
// data directory.
func applyGenesis(db storage.Database, cfg *config.Config, ledger *token.BookLedger, logger *slog.Logger) error {
	applied, err := db.Has([]byte(genesisMarkerKey))
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	allocations, err := cfg.GenesisAllocations()
	if err != nil {
		return err
	}
	for addrStr, amount := range allocations {
		addr, err := crypto.DecodeAddress(addrStr)
		if err != nil {
			return err
		}
		if err := ledger.Mint(addr, amount); err != nil {
			return err
		}
		logger.Info("minted genesis allocation",
			slog.String("addr", addrStr),
			slog.String("amount", amount.String()),
		)
	}
	return db.Put([]byte(genesisMarkerKey), []byte{1})
}

// logEmitter forwards engine events to the structured log until an external
// subscriber bus is wired.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	attrs := make([]any, 0, 2*len(evt.Attributes)+1)
	attrs = append(attrs, slog.String("event", evt.Type))
	for k, v := range evt.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	l.logger.Info("staking event", attrs...)
}
