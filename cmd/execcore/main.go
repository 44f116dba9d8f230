// Command execcore runs the transactional execution core standalone: seed a
// fresh chain from a genesis file, execute a block's worth of transactions
// against it, or issue a read-only query against a finalized state root.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"synnergy-execcore/core"
	"synnergy-execcore/pkg/config"
)

var log = logrus.WithField("component", "execcore")

func main() {
	if _, err := config.LoadFromEnv(); err != nil {
		log.Warnf("config load failed, continuing with defaults: %v", err)
	}
	configureLogging()

	root := &cobra.Command{Use: "execcore", Short: "transactional execution core"}
	root.AddCommand(genesisCmd())
	root.AddCommand(execCmd())
	root.AddCommand(queryCmd())
	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func configureLogging() {
	level, err := logrus.ParseLevel(config.AppConfig.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if config.AppConfig.Logging.File != "" {
		f, err := os.OpenFile(config.AppConfig.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warnf("could not open log file %s: %v", config.AppConfig.Logging.File, err)
			return
		}
		logrus.SetOutput(f)
	}
}

func headPath(dbDir string) string { return filepath.Join(dbDir, "HEAD") }

func readHead(dbDir string) (core.Hash, error) {
	raw, err := os.ReadFile(headPath(dbDir))
	if err != nil {
		return core.Hash{}, fmt.Errorf("read head: %w", err)
	}
	decoded, err := hex.DecodeString(string(raw))
	if err != nil {
		return core.Hash{}, fmt.Errorf("decode head: %w", err)
	}
	return core.BytesToHash(decoded), nil
}

func writeHead(dbDir string, root core.Hash) error {
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(headPath(dbDir), []byte(hex.EncodeToString(root[:])), 0o644)
}

func openTrieDB(dbDir string) (*core.TrieDB, error) {
	store, err := core.NewFileKVStore(filepath.Join(dbDir, "state.gob"))
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return core.NewTrieDB(store, config.AppConfig.Trie.Light), nil
}

func genesisCmd() *cobra.Command {
	var dbDir, genesisFile string
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "initialize every registered service from a genesis parameter file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(genesisFile)
			if err != nil {
				return fmt.Errorf("read genesis file: %w", err)
			}
			var params []core.ServiceParam
			if err := yaml.Unmarshal(raw, &params); err != nil {
				return fmt.Errorf("parse genesis file: %w", err)
			}

			db, err := openTrieDB(dbDir)
			if err != nil {
				return err
			}
			storage := core.NewMemStorage()
			registry := buildRegistry()

			root, err := core.CreateGenesis(params, db, storage, registry)
			if err != nil {
				return fmt.Errorf("create genesis: %w", err)
			}
			if err := writeHead(dbDir, root); err != nil {
				return fmt.Errorf("record genesis root: %w", err)
			}
			log.WithField("root", root.Hex()).Info("genesis committed")
			fmt.Println(root.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&dbDir, "db", "./execcore-data", "state directory")
	cmd.Flags().StringVar(&genesisFile, "genesis-file", "", "YAML file listing service genesis params")
	_ = cmd.MarkFlagRequired("genesis-file")
	return cmd
}

func execCmd() *cobra.Command {
	var dbDir, txFile string
	var height uint64
	var timestamp int64
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "execute a block's worth of transactions against the current head",
		RunE: func(cmd *cobra.Command, args []string) error {
			head, err := readHead(dbDir)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(txFile)
			if err != nil {
				return fmt.Errorf("read transaction file: %w", err)
			}
			var txs []*core.SignedTransaction
			if err := json.Unmarshal(raw, &txs); err != nil {
				return fmt.Errorf("parse transaction file: %w", err)
			}

			db, err := openTrieDB(dbDir)
			if err != nil {
				return err
			}
			storage := core.NewMemStorage()
			registry := buildRegistry()

			exec, err := core.WithRoot(head, db, storage, registry)
			if err != nil {
				return fmt.Errorf("reopen state at head: %w", err)
			}
			resp, err := exec.Exec(&core.ExecutorParams{Height: height, Timestamp: timestamp}, txs)
			if err != nil {
				return fmt.Errorf("exec: %w", err)
			}
			if err := writeHead(dbDir, resp.StateRoot); err != nil {
				return fmt.Errorf("record new head: %w", err)
			}
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbDir, "db", "./execcore-data", "state directory")
	cmd.Flags().StringVar(&txFile, "tx-file", "", "JSON file listing signed transactions to execute")
	cmd.Flags().Uint64Var(&height, "height", 1, "block height")
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "block timestamp (unix seconds)")
	_ = cmd.MarkFlagRequired("tx-file")
	return cmd
}

func queryCmd() *cobra.Command {
	var dbDir, serviceName, method, payload string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "issue a read-only call against the current head",
		RunE: func(cmd *cobra.Command, args []string) error {
			head, err := readHead(dbDir)
			if err != nil {
				return err
			}
			db, err := openTrieDB(dbDir)
			if err != nil {
				return err
			}
			storage := core.NewMemStorage()
			registry := buildRegistry()

			req := &core.TransactionRequest{ServiceName: serviceName, Method: method, Payload: payload}
			resp, err := core.ReadAt(head, db, storage, registry, core.AddressZero, 0, req, &core.ExecutorParams{})
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbDir, "db", "./execcore-data", "state directory")
	cmd.Flags().StringVar(&serviceName, "service", "", "service name")
	cmd.Flags().StringVar(&method, "method", "", "read method name")
	cmd.Flags().StringVar(&payload, "payload", "{}", "JSON-encoded payload")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}
