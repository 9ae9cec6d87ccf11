// Command orca is the cockpit's entry point: it parses CLI flags and
// environment variables, wires every collaborator the runtime loop needs,
// and runs the loop as a bubbletea program.
package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/go-logr/logr"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	klog "k8s.io/klog/v2"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
	crzap "sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/orca-cli/orca/internal/action"
	"github.com/orca-cli/orca/internal/bus"
	"github.com/orca-cli/orca/internal/confirm"
	"github.com/orca-cli/orca/internal/k8s"
	"github.com/orca-cli/orca/internal/kinds"
	"github.com/orca-cli/orca/internal/registry"
	"github.com/orca-cli/orca/internal/runtime"
	"github.com/orca-cli/orca/internal/slots"
	"github.com/orca-cli/orca/internal/store"
	"github.com/orca-cli/orca/pkg/config"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	exitOK         = 0
	exitFatal      = 1
	exitInvalidArg = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		showVersion     = flag.Bool("version", false, "Show version information")
		showHelp        = flag.Bool("help", false, "Show help information")
		refreshMs       = flag.Int("refresh-ms", 1000, "Poll/refresh cadence in milliseconds (minimum 500)")
		namespace       = flag.StringP("namespace", "n", "", "Namespace to watch (mutually exclusive with --all-namespaces)")
		allNamespaces   = flag.BoolP("all-namespaces", "A", false, "Watch every namespace")
		logFilter       = flag.String("log-filter", "warn", "Minimum log level surfaced to the structured log sink (debug|info|warn|error)")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return exitOK
	}
	if *showVersion {
		printVersion()
		return exitOK
	}
	if *namespace != "" && *allNamespaces {
		fmt.Fprintln(os.Stderr, "orca: -n/--namespace and -A/--all-namespaces are mutually exclusive")
		return exitInvalidArg
	}
	if *refreshMs < 500 {
		fmt.Fprintln(os.Stderr, "orca: --refresh-ms must be >= 500")
		return exitInvalidArg
	}

	log := setupLogger(*logFilter)

	kubecfg, err := k8s.LoadKubeconfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}
	restConfig, err := kubecfg.RESTConfigForContext(kubecfg.CurrentContext())
	if err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}

	client, err := k8s.New(restConfig, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}
	if err := client.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}
	defer client.Stop()

	mutations, err := k8s.NewMutations(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}

	tableSource, err := k8s.NewTableSource(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}

	eventBus := bus.New(bus.DefaultCapacity)
	sink := bus.NewSink(eventBus)
	mux := store.NewMultiplexer(tableSource, sink, *refreshMs, log)

	scope := resolveScope(*namespace, *allNamespaces, kubecfg)
	rootFrame := func() slots.Frame {
		return slots.Frame{Kind: kinds.Pods, Scope: scope}
	}
	slotsMgr := slots.NewManager(rootFrame)

	reg := registry.New()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}
	snap := cfg.Snapshot()
	if err := reg.Reload(snap.Aliases, snap.Hotkeys, snap.Plugins); err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}

	cfgWatcher, err := config.NewWatcher()
	if err != nil {
		log.Error(err, "config file watcher disabled")
		cfgWatcher = nil
	}

	readOnly := cfg.ReadOnly || os.Getenv("ORCA_READONLY") == "1"
	sup := action.New(eventBus)

	deps := runtime.Deps{
		Bus:          eventBus,
		Mux:          mux,
		Slots:        slotsMgr,
		Registry:     reg,
		Gate:         confirm.NewGate(),
		Supervisor:   sup,
		Client:       client,
		Mutations:    mutations,
		Kubeconfig:   kubecfg,
		ConfigFile:   cfgWatcher,
		Log:          log,
		InitialKind:  kinds.Pods,
		Scope:        scope,
		ReadOnly:     readOnly,
		ScaleConfirm: cfg.ScaleConfirm,
		RefreshMs:    *refreshMs,
		Editor:       editorCommand(),
	}

	p := tea.NewProgram(runtime.NewLoop(deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "orca: %v\n", err)
		return exitFatal
	}
	return exitOK
}

// resolveScope applies the CLI's namespace selection, falling back to the
// current context's configured namespace when neither -n nor -A was given.
func resolveScope(namespace string, allNamespaces bool, kubecfg *k8s.Kubeconfig) store.Scope {
	switch {
	case allNamespaces:
		return store.AllNamespaces()
	case namespace != "":
		return store.NamespaceScope(namespace)
	default:
		return store.NamespaceScope(kubecfg.NamespaceForContext(kubecfg.CurrentContext()))
	}
}

// editorCommand resolves $KUBE_EDITOR then $EDITOR, leaving the vi fallback
// to internal/runtime.
func editorCommand() string {
	if v := os.Getenv("KUBE_EDITOR"); v != "" {
		return v
	}
	return os.Getenv("EDITOR")
}

// setupLogger builds a controller-runtime/klog-backed logr.Logger filtered
// to --log-filter. client-go's own warnings are redirected into the same
// sink so rate-limit and deprecation notices land next to orca's errors.
func setupLogger(filter string) logr.Logger {
	lvl := zapcore.WarnLevel
	switch strings.ToLower(filter) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "info":
		lvl = zapcore.InfoLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}
	log := crzap.New(crzap.UseDevMode(false), crzap.Level(lvl))
	ctrllog.SetLogger(log)
	klog.SetLogger(log)
	return log
}

func printHelp() {
	fmt.Println("orca - a Kubernetes cockpit")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  orca [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --refresh-ms <ms>         poll/refresh cadence (default 1000, minimum 500)")
	fmt.Println("  -n, --namespace <name>    watch a single namespace")
	fmt.Println("  -A, --all-namespaces      watch every namespace")
	fmt.Println("  --log-filter <level>      debug|info|warn|error (default warn)")
	fmt.Println("  --version                 show version information")
	fmt.Println("  --help                    show this help message")
	fmt.Println()
	fmt.Println("Commands (type `:` to enter):")
	fmt.Println("  :<resource>               switch the active tab to a resource kind")
	fmt.Println("  :ns <name> / :all-ns       change namespace scope")
	fmt.Println("  :delete / :restart / :scale <n>")
	fmt.Println("  :logs / :edit / :exec / :shell / :pf <local>:<remote>")
	fmt.Println("  >                         jump to a resource kind directly")
	fmt.Println("  /                         filter the active table")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  KUBECONFIG, KUBE_EDITOR, EDITOR, ORCA_READONLY, ORCA_CONFIG")
}

func printVersion() {
	fmt.Printf("orca version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("date: %s\n", date)
}
