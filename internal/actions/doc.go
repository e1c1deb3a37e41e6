// Package actions implements the braid commands on top of the engine.
//
// Each action corresponds to one braid command (restack, sync, cascade, ...)
// and orchestrates the engine, the transaction manager, and the git and
// github packages. Actions are stateless: repository state lives behind the
// Engine interface, durable operation state in receipts and the continuation
// file.
//
// Key patterns:
//   - Actions accept a context.Context plus a *runtime.Context carrying the
//     engine, transaction manager, logger, and other dependencies
//   - History-rewriting actions open a transaction before touching any branch
//     and finish its receipt on every exit path
//   - A rebase conflict is a pause, not a failure: the remaining work list is
//     persisted and the receipt halted so continue and abort both work
package actions
