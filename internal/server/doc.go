// Package server implements the fsguardd daemon.
//
// The daemon listens on a TCP socket for JSON-encoded commands from the
// fsguard CLI. A connection may carry any number of request-response
// exchanges, strictly one at a time: the server buffers incoming bytes until
// they parse as one JSON object, dispatches the named command, writes the
// result back, and reads again. There is no delimiter between requests, so a
// client must wait for each response before sending the next request.
//
// At most Config.MaxSessions connections are served at once. Further
// connections are not refused; the acceptor stops accepting until a session
// ends, leaving them in the kernel backlog.
//
// Supported commands are CheckLocalFile, which reports the offsets of a
// byte signature in a file, and QuarantineLocalFile, which moves a file into
// the quarantine directory. They are provided by [FileCommands]; any
// [Commands] table can be served.
//
// Example usage:
//
//	commands := server.FileCommands(scan.New(1024), vault, log, nil)
//	srv := server.New(server.Config{Address: "127.0.0.1:65432"}, commands, log, nil)
//
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//
//	<-ctx.Done()
//	srv.Stop()
//	srv.Wait()
package server
