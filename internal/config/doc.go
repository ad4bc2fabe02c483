// Package config loads, validates, and hot-reloads the server's YAML
// configuration.
//
// # Structure
//
//	type Config struct {
//	    Server    ServerConfig    // listeners, TLS, timeouts
//	    Directory DirectoryConfig // base DN, root DN/password
//	    Storage   StorageConfig   // data dir, WAL dir, page size, checkpoints
//	    Logging   LogConfig       // level/format/output + audit LogStore
//	    Security  SecurityConfig  // password policy, rate limiting, WAL encryption
//	    ACL       ACLConfig       // inline rules, or ACLFile to hot-reload from disk
//	}
//
// # Parsing
//
// parser.go decodes YAML through gopkg.in/yaml.v3's Node tree rather than a
// hand-rolled line walker: Unmarshal populates a DocumentNode/MappingNode/
// SequenceNode/ScalarNode tree, forEachMapping walks a mapping's key/value
// pairs, and scalarList flattens a sequence — which covers both flow
// (`rights: [read, write]`) and block (`- read\n- write`) list styles with
// one code path. Durations ("30s", "90d") and byte sizes ("256MB") have no
// yaml.v3 equivalent, so those stay hand-parsed against each scalar's raw
// text.
//
// # Loading
//
//	cfg, err := config.LoadConfig("/etc/oba/config.yaml")
//	cfg := config.DefaultConfig() // when no file is given
//
// # Environment overrides
//
// LoadConfig and ParseConfig expand ${VAR} and ${VAR:-default} references
// inside the file; they do not read OBA_* variables. The oba command
// (cmd/oba) applies environment variables of the form OBA_<SECTION>_<KEY>
// on top of the loaded configuration, before validating it:
//
//	OBA_SERVER_ADDRESS=:1389
//	OBA_DIRECTORY_ROOT_PASSWORD=secret
//	OBA_LOGGING_LEVEL=debug
//
// # Example file
//
//	server:
//	  address: ":389"
//	  tlsAddress: ":636"
//	  maxConnections: 10000
//
//	directory:
//	  baseDN: "dc=example,dc=com"
//	  rootDN: "cn=admin,dc=example,dc=com"
//	  rootPassword: "${OBA_ROOT_PASSWORD}"
//
//	storage:
//	  dataDir: "/var/lib/oba"
//	  walDir: "/var/lib/oba/wal"
//	  checkpointInterval: 5m
//
//	security:
//	  encryption:
//	    enabled: true
//	    keyFile: "/etc/oba/wal.key"
//
//	acl:
//	  defaultPolicy: "deny"
//	  rules:
//	    - target: "*"
//	      subject: "cn=admin,dc=example,dc=com"
//	      rights: ["read", "write", "add", "delete"]
//
// # Reloading
//
// ConfigWatcher polls the file's mtime/size on an interval with a debounce
// window rather than relying on a filesystem-event API, so it behaves the
// same over NFS-mounted config directories as it does locally; it parses and
// validates the new file before calling OnChange, so a bad edit never
// replaces a good running config.
package config
