// Package fakes provides test doubles for the Blue Connect API transport
// and the AWS secret stores used to resolve account passwords.
//
// The fakes record every call and are safe for concurrent use, so tests
// can assert on exactly how many logins or resource requests a code path
// produced.
package fakes
