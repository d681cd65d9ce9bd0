package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmdUtil "github.com/ValentinKolb/dReact/cmd/util"
	"github.com/ValentinKolb/dReact/lib/shell"
	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/server"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	Logger = logger.GetLogger("rpc")

	ServeCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Start the chat and exec servers",
		Long:    `Start the chat and exec servers with the specified configuration. The configuration can be set via command line flags, environment variables or a config file (--config). The format of the environment variables is DREACT_<flag> (e.g. DREACT_CHAT_MAX_CLIENTS=20)`,
		PreRunE: processConfig,
		RunE:    run,
	}

	chatConfig = common.ServerConfig{Name: "chat"}
	execConfig = common.ServerConfig{Name: "exec"}
)

// instanceDefaults holds the flag defaults of one server instance
type instanceDefaults struct {
	endpoint   string
	maxClients int
	bufferSize int
	chunkSize  int
}

func init() {
	addInstanceFlags("chat", instanceDefaults{endpoint: ":6000", maxClients: 10, bufferSize: 128})
	addInstanceFlags("exec", instanceDefaults{endpoint: ":28000", maxClients: 2, bufferSize: 128, chunkSize: 96})

	key := "exec-mode"
	ServeCmd.PersistentFlags().String(key, "shell", cmdUtil.WrapString("How commands are executed: shell runs them with the configured shell, echo only reports the command back"))

	key = "exec-shell"
	ServeCmd.PersistentFlags().String(key, "/bin/sh", cmdUtil.WrapString("The shell used to run commands in shell mode (invoked as <shell> -c <command>)"))

	key = "exec-max-output"
	ServeCmd.PersistentFlags().Int(key, 64*1024, cmdUtil.WrapString("The maximum number of output bytes kept per command, the rest is discarded"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address of the HTTP endpoint serving /metrics and /status (e.g. :9100). Empty disables it"))

	key = "transport-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer of accepted connections (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer of accepted connections (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY for accepted connections (only for TCP)"))

	key = "transport-tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval of accepted connections (in seconds, only for TCP)"))

	key = "transport-tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time of accepted connections (in seconds, only for TCP, 0 keeps the OS default)"))
}

// addInstanceFlags registers the flags of one server instance, all prefixed with its name
func addInstanceFlags(name string, d instanceDefaults) {
	flags := ServeCmd.PersistentFlags()

	flags.Bool(name+"-enabled", true, cmdUtil.WrapString(fmt.Sprintf("Whether to start the %s server", name)))
	flags.String(name+"-endpoint", d.endpoint, cmdUtil.WrapString(fmt.Sprintf("The address on which the %s server will listen (e.g. %s, /tmp/%s.sock, ...)", name, d.endpoint, name)))
	flags.Int(name+"-max-clients", d.maxClients, cmdUtil.WrapString(fmt.Sprintf("The maximum number of concurrent %s clients, further connections are closed right away", name)))
	flags.Int(name+"-input-buffer", d.bufferSize, cmdUtil.WrapString("The size of each client's input buffer in bytes"))
	flags.Int(name+"-message-size", d.bufferSize, cmdUtil.WrapString("The maximum payload size of a single message in bytes"))
	flags.Int(name+"-workspace-in", d.bufferSize, cmdUtil.WrapString("The largest frame in bytes that is decoded (must not exceed the input buffer)"))
	flags.Int(name+"-workspace-out", d.bufferSize, cmdUtil.WrapString("The size of the encode workspace in bytes (must be at least the message size)"))
	flags.Int(name+"-chunk-size", d.chunkSize, cmdUtil.WrapString("The payload size of output frames (must be smaller than the message size)"))
	flags.Int64(name+"-write-timeout", 5, cmdUtil.WrapString("The timeout in seconds for writing a single frame (0 disables it)"))
}

// processConfig reads the configuration from the command line flags, environment variables
// and the config file and converts them to the server configurations
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := cmdUtil.ReadConfigFile(); err != nil {
		return err
	}

	readInstanceConfig("chat", &chatConfig)
	readInstanceConfig("exec", &execConfig)

	// validate enabled instances only
	for _, c := range []*common.ServerConfig{&chatConfig, &execConfig} {
		if !viper.GetBool(c.Name + "-enabled") {
			continue
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid %s configuration: %w", c.Name, err)
		}
	}
	return nil
}

// readInstanceConfig fills config from the flags prefixed with name
func readInstanceConfig(name string, config *common.ServerConfig) {
	config.Name = name
	config.Endpoint = viper.GetString(name + "-endpoint")
	config.MaxClients = viper.GetInt(name + "-max-clients")
	config.InputBufferSize = viper.GetInt(name + "-input-buffer")
	config.MessageSize = viper.GetInt(name + "-message-size")
	config.WorkspaceInSize = viper.GetInt(name + "-workspace-in")
	config.WorkspaceOutSize = viper.GetInt(name + "-workspace-out")
	config.ChunkSize = viper.GetInt(name + "-chunk-size")
	config.WriteTimeoutSecond = viper.GetInt64(name + "-write-timeout")
	config.LogLevel = viper.GetString("log-level")
	config.SocketConf = common.SocketConf{
		WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
	}
	config.TCPConf = common.TCPConf{
		TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
	}
}

// instance is a configured server together with its metrics
type instance struct {
	server  *server.RPCServer
	metrics *server.Metrics
}

// newInstance builds the server for config, wiring codec, transport, metrics and adapter
func newInstance(config common.ServerConfig) (*instance, error) {
	codec, err := cmdUtil.GetCodec(config.WorkspaceInSize)
	if err != nil {
		return nil, err
	}

	m := server.NewMetrics(config.Name)
	t, err := cmdUtil.GetServerTransport(codec, m)
	if err != nil {
		return nil, err
	}

	var adapter server.IRPCServerAdapter
	switch config.Name {
	case "chat":
		adapter = server.NewChatServerAdapter(config, m)
	case "exec":
		executor, err := getExecutor()
		if err != nil {
			return nil, err
		}
		if adapter, err = server.NewExecServerAdapter(config, executor, codec, m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown server instance %s", config.Name)
	}

	return &instance{server: server.NewRPCServer(config, t, adapter), metrics: m}, nil
}

// getExecutor creates the command executor based on configuration
func getExecutor() (shell.IExecutor, error) {
	switch viper.GetString("exec-mode") {
	case "shell":
		return shell.NewShellExecutor(viper.GetString("exec-shell"), viper.GetInt("exec-max-output")), nil
	case "echo":
		return shell.NewEchoExecutor(), nil
	default:
		return nil, fmt.Errorf("invalid exec mode %s (expected shell or echo)", viper.GetString("exec-mode"))
	}
}

// run starts all enabled servers and blocks until one fails or the process is interrupted
func run(_ *cobra.Command, _ []string) error {
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	var instances []*instance
	for _, c := range []common.ServerConfig{chatConfig, execConfig} {
		if !viper.GetBool(c.Name + "-enabled") {
			Logger.Infof("%s server disabled", c.Name)
			continue
		}
		inst, err := newInstance(c)
		if err != nil {
			return err
		}
		instances = append(instances, inst)
	}
	if len(instances) == 0 {
		return errors.New("no server enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := server.NewRegistry()
	for _, inst := range instances {
		registry.Register(inst.server)
	}

	if endpoint := viper.GetString("metrics-endpoint"); endpoint != "" {
		srv := newMetricsServer(endpoint, instances, registry)
		go func() {
			Logger.Infof("Serving metrics on %s", endpoint)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				Logger.Errorf("metrics endpoint failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	servers := make([]*server.RPCServer, 0, len(instances))
	for _, inst := range instances {
		servers = append(servers, inst.server)
	}
	return serveAll(ctx, servers)
}

// serveAll runs every server until ctx is cancelled. A fatal error of one server stops
// all others and is returned
func serveAll(ctx context.Context, servers []*server.RPCServer) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			return s.Serve(ctx)
		})
	}
	return g.Wait()
}

// newMetricsServer creates the HTTP server exposing prometheus metrics and the instance status
func newMetricsServer(endpoint string, instances []*instance, registry *server.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		for _, inst := range instances {
			inst.metrics.WritePrometheus(w)
		}
		metrics.WritePrometheus(w, true)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(registry.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return &http.Server{Addr: endpoint, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
