// Package acl decides, for every bound identity and every entry the
// backend touches, whether an operation is allowed.
//
// internal/backend calls into an Evaluator on the hot path of every
// add/modify/delete/compare and on each candidate entry a search driver
// streams back, so rule matching has to stay cheap: rules are evaluated
// in declaration order and the first one whose target/subject/scope/
// attribute set matches wins outright, rather than accumulating partial
// matches across the whole rule set.
//
// # Rights
//
// Rights are bit flags, combined with |:
//
//	acl.Read | acl.Search
//
// # Rules
//
//	rule := acl.NewACL("ou=users,dc=example,dc=com", "authenticated", acl.Read|acl.Search).
//	    WithScope(acl.ScopeSubtree).
//	    WithAttributes("cn", "mail", "uid")
//
//	deny := acl.NewACL("*", "anonymous", acl.Read).
//	    WithAttributes("userPassword").
//	    WithDeny(true)
//
// # Subjects
//
//   - "anonymous" — unbound connections
//   - "authenticated" — any successful bind
//   - "self" — the entry being accessed, for self-service modification
//   - "*" — everyone
//   - a DN — a specific bound identity
//
// # Evaluation
//
//	ev := acl.NewEvaluator(cfg)
//	ctx := acl.NewAccessContext(bindDN, targetDN, acl.Read).WithAttributes("cn", "mail")
//	if ev.CheckAccess(ctx) {
//	    // allowed
//	}
//
// Manager reloads the rule set on SIGHUP without restarting
// listeners; Evaluator holds no state beyond the Config it was built from,
// so a reload is a pointer swap, not a rebuild of in-flight evaluators.
package acl
