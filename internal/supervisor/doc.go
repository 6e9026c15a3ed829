// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

/*
Package supervisor runs the long-lived parts of the server under suture v4.

	RootSupervisor ("roster")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── session pruner
	│   └── login counter and error fingerprint pruner
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Services that return an error are restarted with suture's backoff. Events
are logged through sutureslog using the slog bridge from the logging
package.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMaintenanceService(services.NewPeriodicService("session-pruner", cfg.Session.PruneInterval, prune))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)
*/
package supervisor
