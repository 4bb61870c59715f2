// Parses flags and configures logging for the fsguardd daemon.
//
// The daemon accepts the following flags:
//
//	    --quiet                     Suppress informational output.
//	-v, --verbose                   Enable verbose output.
//	-d, --debug                     Enable debug output.
//	    --log-file                  Append-only event log.
//
// The start command adds:
//
//	-a, --address                   TCP address to listen on.
//	-q, --quarantine-directory      Directory for quarantined files.
//	    --on-collision              overwrite, rename or reject.
//	-t, --threads-max               Maximum concurrent sessions.
//	    --accept-interval           Shutdown poll interval of the accept loop.
//	    --idle-timeout              Close idle sessions after this long.
//	    --buffer-limit              Receive buffer cap per session.
//	    --max-signature-kb          Maximum decoded signature size.
//	    --metrics-address           Prometheus endpoint address.
//
// Every default can be overridden through the matching FSGUARD_* environment
// variable, and flags override both. After parsing, the logger is rebuilt to
// reflect the final level and verbosity before the server starts.
package cli
