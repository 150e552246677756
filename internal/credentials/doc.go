// Package credentials resolves vendor access tokens from explicit
// configuration first and the process environment last, so vendor clients
// receive their token through their constructor instead of reading ambient
// state.
package credentials
