package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

func newApp() *cli.App {
	return &cli.App{
		Name:  "ibpcheck",
		Usage: "Check book shipments against inmate release data",
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Evaluate one shipment and print its warnings (exit status 2 when flagged)",
				UsageText: "ibpcheck check --config FILE --inmate ID [--postmark DATE] [--last-filled DATE] [--now DATE]",
				Action:    runCheck,
				Flags: []cli.Flag{
					configFlag(),
					inmateFlag(),
					dateFlag("postmark", "postmark date of the request letter"),
					dateFlag("last-filled", "postmark of the inmate's last filled request"),
					dateFlag("now", "evaluation date (default: today)"),
					jsonFlag(),
				},
			},
			{
				Name:   "lookup",
				Usage:  "Print what the cache or the provider knows about an inmate",
				Action: runLookup,
				Flags: []cli.Flag{
					configFlag(),
					inmateFlag(),
					jsonFlag(),
				},
			},
			{
				Name:      "search",
				Usage:     "Find inmates by first name prefix and last name",
				UsageText: "ibpcheck search --config FILE --first NAME --last NAME [--json]",
				Action:    runSearch,
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "first", Aliases: []string{"f"}, Usage: "first name or its beginning", Required: true},
					&cli.StringFlag{Name: "last", Aliases: []string{"l"}, Usage: "last name", Required: true},
					jsonFlag(),
				},
			},
			{
				Name:   "purge",
				Usage:  "Load the snapshot store, drop idle entries and report counts",
				Action: runPurge,
				Flags: []cli.Flag{
					configFlag(),
				},
			},
			{
				Name:   "janitor",
				Usage:  "Purge idle entries every cache.purge_interval until interrupted",
				Action: runJanitor,
				Flags: []cli.Flag{
					configFlag(),
				},
			},
			{
				Name:   "bench",
				Usage:  "Run a concurrent lookup load test against an in-process provider",
				Action: runBench,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "shards", Value: 8, Usage: "shard count"},
					&cli.IntFlag{Name: "capacity", Value: 40000, Usage: "max entries, 0 = unbounded"},
					&cli.IntFlag{Name: "keys", Value: 20000, Usage: "distinct inmate ids"},
					&cli.IntFlag{Name: "goroutines", Value: 200, Usage: "concurrent readers"},
					&cli.IntFlag{Name: "ops", Value: 5000, Usage: "lookups per reader"},
					&cli.StringFlag{Name: "eviction", Value: "LRU", Usage: "LRU or FIFO"},
				},
			},
		},
	}
}

func configFlag() cli.Flag {
	return &cli.PathFlag{
		Name:      "config",
		Aliases:   []string{"c"},
		Usage:     "YAML configuration file",
		EnvVars:   []string{"IBP_CONFIG"},
		TakesFile: true,
	}
}

func inmateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "inmate",
		Aliases:  []string{"i"},
		Usage:    "inmate id as written on the request",
		Required: true,
	}
}

func dateFlag(name, usage string) cli.Flag {
	return &cli.TimestampFlag{
		Name:     name,
		Usage:    usage + " (YYYY-MM-DD)",
		Layout:   dateLayout,
		Timezone: time.Local,
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "print machine-readable output",
	}
}
