// Package start implements "istd start", which reads an IST daemon's YAML
// configuration and runs it as either a joiner (Receiver) or a donor
// (Sender, dispatched through an AsyncSenderMap) until a shutdown signal
// arrives.
package start

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dutow/galera/internal/config"
	"github.com/dutow/galera/internal/log"
	"github.com/dutow/galera/internal/metrics"
	"github.com/dutow/galera/ist"
)

const (
	usage                 = "start"
	short                 = "Start an IST daemon"
	long                  = "This command starts an IST daemon as either a joiner (receiver) or a donor (sender)"
	example               = "istd start --config <path>"
	defaultConfigFilePath = "./ist.yml"
	configDesc            = "set the path for the istd YAML configuration file"
)

var (
	// Cmd is the start command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		Aliases:    []string{"s"},
		SuggestFor: []string{"boot", "up"},
		Example:    example,
		RunE:       executeStart,
	}

	configFilePath string
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	Cmd.Flags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, configDesc)
}

func executeStart(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true
	log.Info("using %v for configuration", configFilePath)

	cfg, err := config.Parse(data)
	if err != nil {
		return err
	}
	log.SetLevel(levelFromString(cfg.LogLevel))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	switch cfg.Role {
	case config.RoleJoiner:
		go serveMux(cfg.MetricsAddr, mux)
		return runJoiner(cfg)
	case config.RoleDonor:
		pool, err := newDonorPool(cfg)
		if err != nil {
			return err
		}
		mux.Handle("/ist/push", newPushHandler(pool))
		go serveMux(cfg.MetricsAddr, mux)
		return runDonor(pool)
	default:
		return errUnknownRole(cfg.Role)
	}
}

func serveMux(addr string, mux *http.ServeMux) {
	log.Info("launching IST admin/metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("admin server error: %v", err)
	}
}

func runJoiner(cfg *config.Config) error {
	handler := ist.WithLogging(newApplyHandler())

	// A real joiner learns last_seqno from group communication before
	// preparing the receiver; here it is passed as 0, which turns off the
	// receiver's short-stream check.
	recv := ist.NewReceiver(cfg, handler, ist.CurrentVersion, ist.Seqno(0))
	if err := recv.Prepare(); err != nil {
		return err
	}
	log.Info("joiner listening for IST on %s", recv.Addr())

	// SST is out of scope; Ready is called immediately with seqno 0,
	// meaning every streamed event must be applied.
	recv.Ready(0)

	waitForShutdown(func() {
		if err := recv.Finished(); err != nil {
			log.Warn("receiver finished with error: %v", err)
		}
	})
	return nil
}

// donorPool bundles what the admin HTTP handler needs to trigger a push:
// the cache it streams from, the TLS config to dial peers with, and the
// async sender pool itself.
type donorPool struct {
	pool      *ist.AsyncSenderMap
	cache     ist.Cache
	tlsConfig *tls.Config
}

func newDonorPool(cfg *config.Config) (*donorPool, error) {
	tlsConfig, err := ist.ResolveTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &donorPool{
		pool:      ist.NewAsyncSenderMap(),
		cache:     newFileCache(cfg),
		tlsConfig: tlsConfig,
	}, nil
}

func runDonor(dp *donorPool) error {
	log.Info("donor ready, awaiting push requests on /ist/push")
	waitForShutdown(func() {
		dp.pool.Cancel()
	})
	return nil
}

func waitForShutdown(onSignal func()) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	s := <-signalChan
	log.Info("initiating graceful shutdown due to '%v' request", s)
	onSignal()
	time.Sleep(100 * time.Millisecond)
}

func errUnknownRole(role config.Role) error {
	return fmt.Errorf("ist: unknown role %q, want %q or %q", role, config.RoleJoiner, config.RoleDonor)
}

func levelFromString(s string) log.Level {
	switch s {
	case "debug":
		return log.DEBUG
	case "warning":
		return log.WARNING
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
