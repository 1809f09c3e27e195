// Command ne wires the editor core's packages into a running process: it
// parses the command line, loads prefs/keys/virtual-extensions, opens
// whatever documents were named, optionally starts the renderhub
// transport, and installs the fatal-signal autosave pass. It does not
// implement a terminal front end of its own (no raw-mode keypress
// decoding): that collaborator surface is left to whatever drives the
// editor core interactively or over the renderhub websocket.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vigna-ne/ne/pkg/config"
	"github.com/vigna-ne/ne/pkg/editor"
	"github.com/vigna-ne/ne/pkg/encoding"
	"github.com/vigna-ne/ne/pkg/keys"
	"github.com/vigna-ne/ne/pkg/macro"
	"github.com/vigna-ne/ne/pkg/recovery"
	"github.com/vigna-ne/ne/pkg/renderhub"
	"github.com/vigna-ne/ne/pkg/status"
)

// options holds the parsed command-line surface of spec.md 6:
// +[N[,M]], --binary, --read-only, --utf8, --no-utf8, --ansi, --no-ansi,
// --no-config, --no-syntax, --prefs EXT, --keys FILE, --menus FILE,
// --macro FILE. --render-hub is an addition beyond spec.md 6, the
// renderhub transport's optional listen address (SPEC_FULL.md 6).
type options struct {
	binary     bool
	readOnly   bool
	utf8       bool
	noUTF8     bool
	ansi       bool
	noANSI     bool
	noConfig   bool
	noSyntax   bool
	prefsExt   string
	keysFile   string
	menusFile  string
	macroFile  string
	renderHub  string
	jumpLine   int64
	jumpColumn int64
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if os.Getenv("NE_DEBUG") != "" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}

// prefsDirs returns (userPrefsDir, globalPrefsDir), following the
// original's own search: a dotdir under $HOME and a build-time global
// directory, overridable by NE_GLOBAL_DIR for testing and packaging.
func prefsDirs() (userDir, globalDir string) {
	if home, err := os.UserHomeDir(); err == nil {
		userDir = filepath.Join(home, ".ne")
	}
	globalDir = os.Getenv("NE_GLOBAL_DIR")
	if globalDir == "" {
		globalDir = "/usr/local/share/ne"
	}
	return userDir, globalDir
}

// parseJumpArg recognizes a leading "+N" or "+N,M" argument (jump to
// line N, column M on the first opened document), the one piece of
// spec.md 6's surface pflag cannot parse as an ordinary flag since it
// does not start with a dash. Returns the remaining args with it
// removed, if found.
func parseJumpArg(args []string) ([]string, int64, int64) {
	if len(args) == 0 || !strings.HasPrefix(args[0], "+") {
		return args, -1, -1
	}
	spec := args[0][1:]
	if spec == "" {
		return args[1:], -1, -1
	}
	parts := strings.SplitN(spec, ",", 2)
	line, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return args, -1, -1
	}
	column := int64(-1)
	if len(parts) == 2 {
		if c, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			column = c
		}
	}
	return args[1:], line, column
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opt options

	cmd := &cobra.Command{
		Use:   "ne [files...]",
		Short: "ne is a modeless, full-screen text editor core",
		RunE: func(cmd *cobra.Command, args []string) error {
			args, opt.jumpLine, opt.jumpColumn = parseJumpArg(args)
			return run(opt, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opt.binary, "binary", false, "open every named document in binary mode (no encoding auto-detection)")
	flags.BoolVar(&opt.readOnly, "read-only", false, "open every named document read-only")
	flags.BoolVar(&opt.utf8, "utf8", false, "force UTF-8 auto-detection on")
	flags.BoolVar(&opt.noUTF8, "no-utf8", false, "force UTF-8 auto-detection off")
	flags.BoolVar(&opt.ansi, "ansi", false, "assume an ANSI-capable terminal (accepted for compatibility; this build has no terminal renderer of its own)")
	flags.BoolVar(&opt.noANSI, "no-ansi", false, "assume a plain terminal (accepted for compatibility)")
	flags.BoolVar(&opt.noConfig, "no-config", false, "skip loading prefs files and virtual extensions")
	flags.BoolVar(&opt.noSyntax, "no-syntax", false, "disable syntax highlighting")
	flags.StringVar(&opt.prefsExt, "prefs", "", "load <EXT>.prefs instead of resolving one from the document's extension")
	flags.StringVar(&opt.keysFile, "keys", "", "load this key-binding file instead of searching the prefs directories")
	flags.StringVar(&opt.menusFile, "menus", "", "menu description file (accepted for compatibility; no menu front end ships with this build)")
	flags.StringVar(&opt.macroFile, "macro", "", "play this macro against the first opened document before returning control")
	flags.StringVar(&opt.renderHub, "render-hub", "", "loopback address (e.g. 127.0.0.1:0) to serve the renderhub websocket transport on; empty disables it")
	flags.SetInterspersed(false)

	return cmd
}

func run(opt options, paths []string) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	userDir, globalDir := prefsDirs()
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	macroCache, err := macro.NewCache(cwd, userDir, globalDir)
	if err != nil {
		logger.Warn("macro cache disabled: fsnotify watcher failed to start", zap.Error(err))
		macroCache = nil
	}
	if macroCache != nil {
		defer macroCache.Close() //nolint:errcheck
	}

	ed := editor.New(macroCache)

	var keyTable *keys.Table
	if opt.keysFile != "" {
		keyTable, err = loadKeysFile(opt.keysFile)
	} else {
		keyTable, err = loadKeysDirs(globalDir, userDir, cwd)
	}
	if err != nil {
		return err
	}
	logger.Debug("key bindings loaded", zap.String("summary", keyTable.String()))

	var virtExt *config.VirtualExtensionTable
	if !opt.noConfig {
		var st status.Status
		virtExt, st = config.LoadVirtualExtensions(globalDir, userDir)
		if !st.OK() {
			return fmt.Errorf("loading virtual extensions: %s", st)
		}
	}

	if opt.menusFile != "" {
		logger.Debug("menus file accepted but not used by this build", zap.String("path", opt.menusFile))
	}
	if opt.ansi || opt.noANSI {
		logger.Debug("terminal color mode flag accepted but not used by this build", zap.Bool("ansi", opt.ansi), zap.Bool("noANSI", opt.noANSI))
	}

	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		cols, rows = 80, 24
	}
	logger.Debug("detected terminal size", zap.Int("cols", cols), zap.Int("rows", rows))

	var firstDocID string
	for i, path := range paths {
		doc, st := openDocument(ed, path, opt)
		if !st.OK() {
			return fmt.Errorf("opening %s: %s", path, st)
		}
		if i == 0 {
			firstDocID = doc.ID
		}
		if !opt.noConfig {
			applyPrefs(doc, virtExt, opt.prefsExt, globalDir, userDir)
		}
		if opt.noSyntax {
			doc.Buf.Syntax = nil
		}
	}
	if len(paths) == 0 {
		doc := ed.NewDocument("")
		firstDocID = doc.ID
	}

	if opt.jumpLine >= 0 && firstDocID != "" {
		jumpToLine(ed, firstDocID, opt.jumpLine, opt.jumpColumn)
	}

	if opt.macroFile != "" {
		if err := playMacroFile(ed, firstDocID, opt.macroFile); err != nil {
			return err
		}
	}

	if opt.renderHub != "" {
		hub := renderhub.New(ed)
		srv := &http.Server{Addr: opt.renderHub, Handler: renderhub.NewRouter(hub)}
		go func() {
			logger.Info("renderhub listening", zap.String("addr", opt.renderHub))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("renderhub exited", zap.Error(err))
			}
		}()
		defer srv.Close() //nolint:errcheck
	}

	waitForShutdown(ed, logger)
	return nil
}

func loadKeysFile(path string) (*keys.Table, error) {
	t, st := keys.LoadFile(path)
	if !st.OK() {
		return nil, fmt.Errorf("loading keys file %s: %s", path, st)
	}
	return t, nil
}

func loadKeysDirs(globalDir, userDir, cwd string) (*keys.Table, error) {
	t, st := keys.Load(globalDir, userDir, cwd)
	if !st.OK() {
		return nil, fmt.Errorf("loading key bindings: %s", st)
	}
	return t, nil
}

// openDocument creates a document, seeds it from path's contents if the
// file already exists (a missing file just starts an empty, named
// document, matching the original's "create on save" behavior), and
// applies the buffer-affecting flags (--binary, --read-only, --utf8,
// --no-utf8).
func openDocument(ed *editor.Editor, path string, opt options) (*editor.Document, status.Status) {
	doc := ed.NewDocument(path)
	doc.Buf.SourcePath = path
	doc.Buf.ReadOnly = opt.readOnly
	doc.Buf.Options.Binary = opt.binary
	if opt.utf8 {
		doc.Buf.Options.UTF8Auto = true
	}
	if opt.noUTF8 {
		doc.Buf.Options.UTF8Auto = false
	}

	manifest, hasManifest, st := recovery.LoadManifest(path)
	if !st.OK() {
		return nil, st
	}
	if hasManifest {
		doc.Buf.CRLFOnSave = manifest.CRLFOnSave
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, status.OK
		}
		return nil, status.CANT_OPEN_FILE
	}
	if opt.binary {
		doc.Buf.Enc = encoding.BYTE8
		if st := doc.Buf.InsertBytes(data); !st.OK() {
			return nil, st
		}
		doc.Buf.IsModified = false
		return doc, status.OK
	}
	if st := doc.Buf.LoadFile(data); !st.OK() {
		return nil, st
	}
	if hasManifest {
		doc.Buf.CRLFOnSave = manifest.CRLFOnSave
	}
	return doc, status.OK
}

func applyPrefs(doc *editor.Document, virtExt *config.VirtualExtensionTable, prefsExt, globalDir, userDir string) {
	ext := prefsExt
	if ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(doc.Path), ".")
		if virtExt != nil {
			if resolved, ok := virtExt.Resolve(doc.Buf, ext); ok {
				ext = resolved
			}
		}
	}
	if ext == "" {
		return
	}
	for _, dir := range []string{globalDir, userDir} {
		if dir == "" {
			continue
		}
		_ = config.LoadPrefsFile(filepath.Join(dir, ext+".prefs"), doc.Dispatch)
	}
}

func jumpToLine(ed *editor.Editor, docID string, line, column int64) {
	doc, ok := ed.Document(docID)
	if !ok {
		return
	}
	b := doc.Buf
	b.Lock()
	if line >= b.NumLines {
		line = b.NumLines - 1
	}
	if line < 0 {
		line = 0
	}
	ld := b.NthLineDesc(line)
	b.CurLine, b.CurLineNum = ld, line
	pos := 0
	if column > 0 {
		pos = int(column)
		if pos > ld.Len() {
			pos = ld.Len()
		}
	}
	b.CurPosBytes = pos
	b.Unlock()
}

func playMacroFile(ed *editor.Editor, docID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading macro file %s: %w", path, err)
	}
	m := macro.ParseText(filepath.Base(path), string(data))

	player := &macro.Player{Dispatch: func(line string) status.Status {
		doc, ok := ed.Document(docID)
		if !ok {
			return status.NOT_FOUND
		}
		name, intArg, strArg, st := doc.Dispatch.Registry.ParseCommandLine(line, false)
		if !st.OK() {
			return st
		}
		if name == "" {
			return status.OK
		}
		return ed.Dispatch(docID, name, intArg, strArg)
	}}

	if _, st := player.Play(m.Lines, &ed.Stop); !st.OK() {
		return fmt.Errorf("playing macro %s: %s", path, st)
	}
	return nil
}

// waitForShutdown blocks until SIGINT, SIGTERM, or SIGHUP, then autosaves
// every open document outside any buffer's critical section (spec.md 5's
// fatal-signal autosave), realized here as an os/signal channel at the
// outermost layer rather than a signal handler running inside one.
func waitForShutdown(ed *editor.Editor, logger *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-sig

	for _, doc := range ed.Documents() {
		if !doc.Buf.IsModified {
			continue
		}
		payload := doc.Buf.ExtractAll()
		if st := recovery.Autosave(doc.Buf, payload); !st.OK() {
			logger.Error("autosave failed", zap.String("path", doc.Buf.SourcePath), zap.String("status", st.String()))
			continue
		}
		logger.Info("autosaved on shutdown", zap.String("path", doc.Buf.SourcePath))
	}
}
