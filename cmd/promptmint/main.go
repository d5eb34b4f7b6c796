package main

import (
	"flag"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"promptmint/config"
	"promptmint/core/state"
	"promptmint/native/access"
	"promptmint/native/mint"
	"promptmint/native/reveal"
	"promptmint/observability/logging"
	"promptmint/rpc"
	"promptmint/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("PROMPTMINT_ENV"))
	logger := logging.Setup("promptmint", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.String("dataDir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := seedState(manager, cfg, logger); err != nil {
		logger.Error("Failed to seed state", slog.Any("error", err))
		os.Exit(1)
	}

	mintEngine := mint.NewEngine()
	mintEngine.SetState(manager)
	mintEngine.SetRoles(manager)
	mintEngine.SetBatchFactory(func() mint.BatchWriter { return manager.NewBatch() })
	// TODO: replace with the payout daemon integration once it ships; until
	// then outbound transfers are acknowledged and logged only.
	mintEngine.SetTransfer(func(to [20]byte, amount *big.Int) error {
		logger.Info("payout executed",
			slog.String("recipient", common.BytesToAddress(to[:]).Hex()),
			slog.String("amount", amount.String()))
		return nil
	})

	revealEngine := reveal.NewEngine()
	revealEngine.SetState(manager)
	revealEngine.SetRoles(manager)
	revealEngine.SetBatchFactory(func() reveal.BatchWriter { return manager.NewBatch() })

	server := rpc.NewServer(mintEngine, revealEngine, manager)
	logger.Info("Starting JSON-RPC server", slog.String("address", cfg.RPCAddress))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// seedState applies one-time configuration values: the deploying admin, the
// initial price and the placeholder URI. Existing state always wins so a
// config edit never rewrites live contract data.
func seedState(manager *state.Manager, cfg *config.Config, logger *slog.Logger) error {
	if admin, ok := cfg.AdminAddressBytes(); ok {
		if err := manager.SetRole(access.RoleAdmin, admin[:]); err != nil {
			return err
		}
		logger.Info("admin role ensured", slog.String("address", common.BytesToAddress(admin[:]).Hex()))
	}

	price, err := manager.MintPriceGet()
	if err != nil {
		return err
	}
	if price.Sign() == 0 {
		configured, err := cfg.MintPriceBig()
		if err != nil {
			return err
		}
		if configured.Sign() > 0 {
			if err := manager.MintPricePut(configured); err != nil {
				return err
			}
			logger.Info("mint price initialised", slog.String("price", configured.String()))
		}
	}

	placeholder, err := manager.PlaceholderURIGet()
	if err != nil {
		return err
	}
	if placeholder == "" && strings.TrimSpace(cfg.PlaceholderURI) != "" {
		if err := manager.PlaceholderURIPut(cfg.PlaceholderURI); err != nil {
			return err
		}
	}
	return nil
}
