// Package audit reconciles generated asset folders with each other and with
// metadata manifests, and re-derives variation source keys from frequency
// data.
//
// Every check is a pure function of directory listings and decoded JSON;
// nothing here writes to the audited folders.
package audit
