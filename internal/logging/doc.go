// Package logging provides leveled logging for the whole application.
//
// The level is taken from the DEBUG and LOG_LEVEL environment variables
// the first time any log function is called, and can be overridden at
// runtime with SetLevel (the --loglevel CLI flag does this).
package logging
