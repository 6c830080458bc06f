// Package probe is a client for a running pitfall server.
//
// It wraps the HTTP endpoints in a small typed Client and builds three
// checks on top of it: path traversal rejection on /file, uniqueness of
// concurrent /increment results, and response time of /duplicates.
//
// # Basic Usage
//
//	client, err := probe.New(&probe.Config{Endpoint: "http://localhost:3000"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report, err := probe.CheckRace(ctx, client, probe.RaceOptions{Concurrency: 10})
//
// # Profile Configuration
//
// Targets can be saved as named profiles in ~/.pitfall/probe.yaml:
//
//	profiles, err := probe.ReadProfiles(probe.ProfilesPath())
//	target, err := profiles.Lookup("staging")
//	cfg := target.Config().Override(probe.Config{Endpoint: probe.LookupEnv().Endpoint})
//	client, err := probe.New(&cfg)
//
// # Output Formatting
//
//	formatter := probe.NewFormatter(jsonOutput, quiet)
//	formatter.FormatRace(os.Stdout, report)
package probe
