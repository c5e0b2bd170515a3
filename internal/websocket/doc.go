// Package websocket serves the live dashboard channel. A client sends its
// filter selection and receives the re-rendered dashboard; every client gets
// a status message describing the loaded dataset when it connects.
package websocket
