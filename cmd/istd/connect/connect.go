// Package connect implements "istd connect", an operator-facing client
// for an already-running istd, mirroring the teacher's own "connect"
// command's role as an interactive session against a live database
// instance. In local mode it pings a receiver's address directly at the
// IST protocol level; in remote mode it asks a running donor's admin
// endpoint to push a range to a peer.
package connect

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dutow/galera/internal/log"
	"github.com/dutow/galera/ist"
)

const (
	usage   = "connect"
	short   = "Interact with a running IST daemon"
	long    = "This command either pings a receiver's IST port directly or asks a donor to push a range to a peer"
	example = "istd connect --ping host:4568\nistd connect --admin host:9110 --peer host2:4568 --first 100 --last 200"
)

var (
	// Cmd is the connect command.
	Cmd = &cobra.Command{
		Use:     usage,
		Short:   short,
		Long:    long,
		Example: example,
		Args:    validateArgs,
		RunE:    executeConnect,
	}

	pingAddr     string
	adminAddr    string
	peerAddr     string
	first        int64
	last         int64
	preloadStart int64
	useTLS       bool
)

// nolint:gochecknoinits // cobra's standard way to initialize flags
func init() {
	Cmd.Flags().StringVar(&pingAddr, "ping", "", "dial a receiver directly and report whether it's reachable")
	Cmd.Flags().StringVar(&adminAddr, "admin", "", "admin/metrics address of a running donor's istd")
	Cmd.Flags().StringVar(&peerAddr, "peer", "", "joiner address to push an IST stream to")
	Cmd.Flags().Int64Var(&first, "first", 0, "first seqno to stream")
	Cmd.Flags().Int64Var(&last, "last", 0, "last seqno to stream")
	Cmd.Flags().Int64Var(&preloadStart, "preload-start", 0, "lowest seqno to mark for preload")
	Cmd.Flags().BoolVar(&useTLS, "tls", false, "use TLS when dialing --ping")
}

func validateArgs(cmd *cobra.Command, args []string) error {
	if pingAddr == "" && adminAddr == "" {
		return errors.New("specify either --ping or --admin")
	}
	if pingAddr != "" && adminAddr != "" {
		return errors.New("specify only one of --ping or --admin")
	}
	return nil
}

func executeConnect(cmd *cobra.Command, args []string) error {
	if pingAddr != "" {
		return runPing()
	}
	return runPush()
}

func runPing() error {
	var tlsConfig *tls.Config
	if useTLS {
		tlsConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator diagnostic tool, not a production peer
	}

	start := time.Now()
	if err := ist.Ping(pingAddr, ist.CurrentVersion, tlsConfig); err != nil {
		return fmt.Errorf("%s is not reachable: %w", pingAddr, err)
	}
	log.Info("%s is reachable (round trip %s)", pingAddr, time.Since(start))
	return nil
}

func runPush() error {
	if peerAddr == "" {
		return errors.New("--peer is required with --admin")
	}
	body, err := json.Marshal(struct {
		PeerAddr     string `json:"peer_addr"`
		First        int64  `json:"first"`
		Last         int64  `json:"last"`
		PreloadStart int64  `json:"preload_start"`
	}{peerAddr, first, last, preloadStart})
	if err != nil {
		return err
	}

	url := "http://" + adminAddr + "/ist/push"
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("push request rejected: %s", resp.Status)
	}
	log.Info("push accepted: peer=%s range=[%d,%d]", peerAddr, first, last)
	return nil
}
