// Package runtime provides the execution context for ng-dev commands.
//
// A Context carries the loaded configuration and the git, GitHub and npm
// clients a command needs. Commands receive it explicitly; tests build one with
// NewContext and in-memory fakes instead of touching process-wide state.
package runtime
