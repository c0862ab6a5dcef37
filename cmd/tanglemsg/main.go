package main

import (
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"xdao.co/tanglemsg/cidutil"
	"xdao.co/tanglemsg/compliance"
	"xdao.co/tanglemsg/ident"
	"xdao.co/tanglemsg/keys"
	"xdao.co/tanglemsg/msg"
	"xdao.co/tanglemsg/replica"
	"xdao.co/tanglemsg/storage"
	"xdao.co/tanglemsg/storage/storeconfig"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries the global flags into every command.
type cli struct {
	out     io.Writer
	errOut  io.Writer
	log     *logrus.Logger
	keysDir string
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("tanglemsg", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() { printUsage(errOut) }
	var level string
	c := &cli{out: out, errOut: errOut}
	fs.StringVar(&level, "log-level", "warning", "Log level (debug, info, warning, error)")
	fs.StringVar(&c.keysDir, "keys-dir", "", "Key store directory (default ~/.tanglemsg/keys)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --log-level: %v\n", err)
		return 2
	}
	c.log = logrus.New()
	c.log.SetOutput(errOut)
	c.log.SetLevel(lvl)

	args = fs.Args()
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return c.cmdKey(args[1:])
	case "moot-id":
		return c.cmdMootID(args[1:])
	case "moot":
		return c.cmdMoot(args[1:])
	case "data-hash":
		return c.cmdDataHash(args[1:])
	case "id":
		return c.cmdID(args[1:])
	case "create":
		return c.cmdCreate(args[1:])
	case "verify":
		return c.cmdVerify(args[1:])
	case "topo":
		return c.cmdTopo(args[1:])
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "tanglemsg: signed message tangles")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tanglemsg [--log-level <lvl>] [--keys-dir <dir>] <command> ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  key init --name <name> [--seed <base58>] [--force]")
	fmt.Fprintln(w, "  key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  key list")
	fmt.Fprintln(w, "  key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  moot-id --account <id|self|any> --domain <domain> [--cid]")
	fmt.Fprintln(w, "  moot --account <id|self|any> --domain <domain> --signer <name> [--signer-role <role>] [--log <feed.jsonl>]")
	fmt.Fprintln(w, "  data-hash <data.json>")
	fmt.Fprintln(w, "  id [--cid] <msg.json>")
	fmt.Fprintln(w, "  create --signer <name> --domain <domain> --account <id|self|any> --data <data.json> --log <feed.jsonl> [--tangle <root>]... [--account-tip <id>]...")
	fmt.Fprintln(w, "  verify --log <feed.jsonl> [--mode strict|permissive] [--config <store.json>]")
	fmt.Fprintln(w, "  topo --log <feed.jsonl> --root <id> [--debug]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - key seeds are 32 bytes, base58 encoded")
	fmt.Fprintln(w, "  - feed logs hold one JSON message per line")
	fmt.Fprintln(w, "  - create validates the new message against the log before appending it")
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (c *cli) keyStore() (*keys.KeyStore, error) {
	return keys.CreateKeyStore(c.keysDir)
}

func (c *cli) cmdKey(args []string) int {
	if len(args) == 0 {
		printKeyUsage(c.errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return c.cmdKeyInit(args[1:])
	case "derive":
		return c.cmdKeyDerive(args[1:])
	case "list":
		return c.cmdKeyList(args[1:])
	case "export":
		return c.cmdKeyExport(args[1:])
	case "help", "-h", "--help":
		printKeyUsage(c.out)
		return 0
	default:
		fmt.Fprintf(c.errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(c.errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "tanglemsg key: local signing keys")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tanglemsg key init --name <name> [--seed <base58>] [--force]")
	fmt.Fprintln(w, "  tanglemsg key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  tanglemsg key list")
	fmt.Fprintln(w, "  tanglemsg key export --name <name> [--role <role>]")
}

func (c *cli) cmdKeyInit(args []string) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var name string
	var seedText string
	var force bool

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&seedText, "seed", "", "Optional 32-byte seed in base58 (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing key")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(c.errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(c.errOut, "invalid --name: %v\n", err)
		return 2
	}

	var seed [ident.SigningKeySize]byte
	if seedText != "" {
		var err error
		if seed, err = keys.ParseSeed(seedText); err != nil {
			fmt.Fprintf(c.errOut, "invalid --seed: %v\n", err)
			return 2
		}
	} else if _, err := rand.Read(seed[:]); err != nil {
		fmt.Fprintf(c.errOut, "rand: %v\n", err)
		return 1
	}

	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	pub, path, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(c.errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.out, "Created root key: %s\n", pub)
	fmt.Fprintf(c.out, "Stored at: %s\n", path)
	return 0
}

func (c *cli) cmdKeyDerive(args []string) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. feed, account)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing role key")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(c.errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(c.errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(c.errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(c.errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	pub, path, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(c.errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.out, "Created role key: %s\n", pub)
	fmt.Fprintf(c.out, "Stored at: %s\n", path)
	return 0
}

func (c *cli) cmdKeyExport(args []string) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (exports the derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(c.errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(c.errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(c.errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	exp, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(c.errOut, "export key: %v\n", err)
		return 1
	}
	b, err := json.Marshal(exp)
	if err != nil {
		fmt.Fprintf(c.errOut, "export key: %v\n", err)
		return 1
	}
	fmt.Fprintln(c.out, string(b))
	return 0
}

func (c *cli) cmdKeyList(args []string) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := c.keyStore()
	if err != nil {
		fmt.Fprintf(c.errOut, "keys: %v\n", err)
		return 1
	}
	names, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(c.errOut, "list keys: %v\n", err)
		return 1
	}
	for _, n := range names {
		fmt.Fprintln(c.out, n)
	}
	return 0
}

func parseAccountDomain(errOut io.Writer, accountText, domainText string) (msg.AccountID, msg.MsgDomain, bool) {
	if accountText == "" || domainText == "" {
		fmt.Fprintln(errOut, "missing --account or --domain")
		return msg.AccountID{}, msg.MsgDomain{}, false
	}
	account, err := msg.ParseAccountID(accountText)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --account: %v\n", err)
		return msg.AccountID{}, msg.MsgDomain{}, false
	}
	domain, err := msg.NewMsgDomain(domainText)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --domain: %v\n", err)
		return msg.AccountID{}, msg.MsgDomain{}, false
	}
	return account, domain, true
}

func printID(w io.Writer, id msg.MsgID, asCID bool) {
	if asCID {
		fmt.Fprintln(w, cidutil.String(id))
		return
	}
	fmt.Fprintln(w, id)
}

func (c *cli) cmdMootID(args []string) int {
	fs := flag.NewFlagSet("moot-id", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	var accountText, domainText string
	var asCID bool
	fs.StringVar(&accountText, "account", "", "Account id, self, or any")
	fs.StringVar(&domainText, "domain", "", "Feed domain")
	fs.BoolVar(&asCID, "cid", false, "Print the id as a CID")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	account, domain, ok := parseAccountDomain(c.errOut, accountText, domainText)
	if !ok {
		return 2
	}
	id, err := msg.MootID(account, domain)
	if err != nil {
		fmt.Fprintf(c.errOut, "moot id: %v\n", err)
		return 1
	}
	printID(c.out, id, asCID)
	return 0
}

func (c *cli) signer(name, role string) (ident.SignKeypair, error) {
	ks, err := c.keyStore()
	if err != nil {
		return ident.SignKeypair{}, err
	}
	return ks.Keypair(name, role)
}

func (c *cli) cmdMoot(args []string) int {
	fs := flag.NewFlagSet("moot", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	var accountText, domainText, signerName, signerRole, logPath string
	fs.StringVar(&accountText, "account", "", "Account id, self, or any")
	fs.StringVar(&domainText, "domain", "", "Feed domain")
	fs.StringVar(&signerName, "signer", "", "Signing key name")
	fs.StringVar(&signerRole, "signer-role", "", "Optional role of the signing key")
	fs.StringVar(&logPath, "log", "", "Append the moot to this feed log")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	account, domain, ok := parseAccountDomain(c.errOut, accountText, domainText)
	if !ok {
		return 2
	}
	if signerName == "" {
		fmt.Fprintln(c.errOut, "missing --signer")
		return 2
	}
	kp, err := c.signer(signerName, signerRole)
	if err != nil {
		fmt.Fprintf(c.errOut, "load signer: %v\n", err)
		return 1
	}
	m, err := msg.CreateMoot(account, domain, kp)
	if err != nil {
		fmt.Fprintf(c.errOut, "create moot: %v\n", err)
		return 1
	}
	return c.emit(m, logPath)
}

// emit appends m to logPath when set and prints it otherwise.
func (c *cli) emit(m *msg.Msg, logPath string) int {
	if logPath != "" {
		if err := replica.AppendLogFile(logPath, m); err != nil {
			fmt.Fprintf(c.errOut, "append log: %v\n", err)
			return 1
		}
		fmt.Fprintln(c.out, m.MustID())
		return 0
	}
	b, err := m.Encode()
	if err != nil {
		fmt.Fprintf(c.errOut, "encode: %v\n", err)
		return 1
	}
	fmt.Fprintln(c.out, string(b))
	return 0
}

func readFileArg(fs *flag.FlagSet, errOut io.Writer, usage string) ([]byte, bool, int) {
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, usage)
		return nil, false, 2
	}
	path := fs.Arg(0)
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return nil, false, 1
	}
	return b, true, 0
}

func (c *cli) cmdDataHash(args []string) int {
	fs := flag.NewFlagSet("data-hash", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	b, ok, code := readFileArg(fs, c.errOut, "usage: tanglemsg data-hash <data.json>")
	if !ok {
		return code
	}
	data, err := msg.ParseMsgData(b)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid data: %v\n", err)
		return 1
	}
	hash, size, err := data.Hash()
	if err != nil {
		fmt.Fprintf(c.errOut, "hash data: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.out, "%s %d\n", hash, size)
	return 0
}

func (c *cli) cmdID(args []string) int {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	var asCID bool
	fs.BoolVar(&asCID, "cid", false, "Print the id as a CID")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	b, ok, code := readFileArg(fs, c.errOut, "usage: tanglemsg id [--cid] <msg.json>")
	if !ok {
		return code
	}
	m, err := msg.DecodeBytes(b)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid message: %v\n", err)
		return 1
	}
	id, err := m.ID()
	if err != nil {
		fmt.Fprintf(c.errOut, "message id: %v\n", err)
		return 1
	}
	printID(c.out, id, asCID)
	return 0
}

// loadReplica ingests every message of the log at path.
func (c *cli) loadReplica(path string, mode compliance.ComplianceMode, store storage.Store) (*replica.Replica, []replica.Exclusion, error) {
	msgs, err := replica.ReadLogFile(path)
	if err != nil {
		return nil, nil, err
	}
	r := replica.New(replica.Options{Store: store, Mode: mode, Logger: c.log})
	_, excluded, err := r.IngestAll(msgs)
	if err != nil {
		return r, excluded, errors.Wrap(err, "ingest log")
	}
	return r, excluded, nil
}

func (c *cli) cmdCreate(args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	var accountText, domainText, signerName, signerRole, dataPath, logPath string
	var tangleRoots, tipTexts stringList
	fs.StringVar(&signerName, "signer", "", "Signing key name")
	fs.StringVar(&signerRole, "signer-role", "", "Optional role of the signing key")
	fs.StringVar(&domainText, "domain", "", "Message domain")
	fs.StringVar(&accountText, "account", "", "Account id, self, or any")
	fs.StringVar(&dataPath, "data", "", "JSON file holding the payload (null, string or object)")
	fs.StringVar(&logPath, "log", "", "Feed log to extend")
	fs.Var(&tangleRoots, "tangle", "Root of a tangle the message joins (repeatable)")
	fs.Var(&tipTexts, "account-tip", "Account tangle tip (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	account, domain, ok := parseAccountDomain(c.errOut, accountText, domainText)
	if !ok {
		return 2
	}
	if signerName == "" || dataPath == "" || logPath == "" {
		fmt.Fprintln(c.errOut, "missing --signer, --data or --log")
		return 2
	}
	roots := make([]msg.MsgID, 0, len(tangleRoots))
	for _, s := range tangleRoots {
		id, err := msg.ParseMsgID(s)
		if err != nil {
			fmt.Fprintf(c.errOut, "invalid --tangle %q: %v\n", s, err)
			return 2
		}
		roots = append(roots, id)
	}
	tips := make([]msg.MsgID, 0, len(tipTexts))
	for _, s := range tipTexts {
		id, err := msg.ParseMsgID(s)
		if err != nil {
			fmt.Fprintf(c.errOut, "invalid --account-tip %q: %v\n", s, err)
			return 2
		}
		tips = append(tips, id)
	}

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		fmt.Fprintf(c.errOut, "read --data: %v\n", err)
		return 1
	}
	data, err := msg.ParseMsgData(raw)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid data: %v\n", err)
		return 1
	}
	kp, err := c.signer(signerName, signerRole)
	if err != nil {
		fmt.Fprintf(c.errOut, "load signer: %v\n", err)
		return 1
	}

	r, _, err := c.loadReplica(logPath, compliance.Permissive, nil)
	if err != nil {
		fmt.Fprintf(c.errOut, "%v\n", err)
		return 1
	}
	views := make(map[msg.MsgID]msg.TangleView, len(roots))
	for _, root := range roots {
		t, err := r.Tangle(root)
		if err != nil {
			fmt.Fprintf(c.errOut, "tangle %s: %v\n", root, err)
			return 1
		}
		views[root] = t
	}
	m, err := msg.Create(msg.CreateOpts{
		Data:        data,
		Domain:      domain,
		Keypair:     kp,
		Account:     account,
		AccountTips: tips,
		Tangles:     views,
	})
	if err != nil {
		fmt.Fprintf(c.errOut, "create: %v\n", err)
		return 1
	}
	if _, err := r.Ingest(m); err != nil {
		fmt.Fprintf(c.errOut, "invalid: %v\n", err)
		return 1
	}
	return c.emit(m, logPath)
}

func (c *cli) cmdVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	var logPath, modeText, configPath string
	fs.StringVar(&logPath, "log", "", "Feed log to verify")
	fs.StringVar(&modeText, "mode", "strict", "Compliance mode: strict|permissive")
	fs.StringVar(&configPath, "config", "", "Optional store config; accepted messages are persisted there")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if logPath == "" {
		fmt.Fprintln(c.errOut, "missing --log")
		return 2
	}
	mode, err := compliance.Parse(modeText)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid --mode: %v\n", err)
		return 2
	}
	var store storage.Store
	if configPath != "" {
		cfg, err := storeconfig.LoadFile(configPath)
		if err != nil {
			fmt.Fprintf(c.errOut, "config: %v\n", err)
			return 1
		}
		if store, err = cfg.Open(); err != nil {
			fmt.Fprintf(c.errOut, "open store: %v\n", err)
			return 1
		}
	}

	r, excluded, err := c.loadReplica(logPath, mode, store)
	for _, ex := range excluded {
		fmt.Fprintf(c.out, "EXCLUDED %s %s %s\n", ex.ID, ex.RuleID, ex.Reason)
	}
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid: %v\n", err)
		return 1
	}
	fmt.Fprintf(c.out, "OK %d tangles\n", len(r.Roots()))
	return 0
}

func (c *cli) cmdTopo(args []string) int {
	fs := flag.NewFlagSet("topo", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	var logPath, rootText string
	var debug bool
	fs.StringVar(&logPath, "log", "", "Feed log")
	fs.StringVar(&rootText, "root", "", "Tangle root id")
	fs.BoolVar(&debug, "debug", false, "Print the tangle one depth per line")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if logPath == "" || rootText == "" {
		fmt.Fprintln(c.errOut, "missing --log or --root")
		return 2
	}
	root, err := msg.ParseMsgID(rootText)
	if err != nil {
		fmt.Fprintf(c.errOut, "invalid --root: %v\n", err)
		return 2
	}
	r, _, err := c.loadReplica(logPath, compliance.Permissive, nil)
	if err != nil {
		fmt.Fprintf(c.errOut, "%v\n", err)
		return 1
	}
	t, err := r.Tangle(root)
	if err != nil {
		fmt.Fprintf(c.errOut, "%v\n", err)
		return 1
	}
	if debug {
		fmt.Fprint(c.out, t.Debug())
		return 0
	}
	for _, id := range t.TopoSort() {
		depth, _ := t.Depth(id)
		fmt.Fprintf(c.out, "%d %s\n", depth, id)
	}
	return 0
}
