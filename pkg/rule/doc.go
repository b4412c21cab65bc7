// Package rule defines the contract between the policy engine and the
// checks it dispatches to.
//
// Named checks implement [Runner] and are looked up in a [Registry].
// Policies can also carry inline [Custom] checks, including checks written
// as CEL expressions ([CELRule]).
package rule
