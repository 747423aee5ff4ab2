package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/insidebooks/ibpcheck/warnings"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// exitFlagged is the exit status of check when the shipment needs a second look.
const exitFlagged = 2

func runCheck(c *cli.Context) error {
	s, err := openStack(c.Context, c.Path("config"))
	if err != nil {
		return err
	}
	defer s.Close()

	now := time.Now()
	if t := c.Timestamp("now"); t != nil {
		now = *t
	}

	res, err := s.warnings.Evaluate(c.Context, warnings.Request{
		InmateID:           c.String("inmate"),
		Postmark:           c.Timestamp("postmark"),
		LastFilledPostmark: c.Timestamp("last-filled"),
		Now:                now,
	})
	if err != nil {
		return err
	}

	if err := writeCheck(c.App.Writer, res, c.Bool("json")); err != nil {
		return err
	}
	if res.Flagged() {
		return cli.Exit("", exitFlagged)
	}
	return nil
}

func runLookup(c *cli.Context) error {
	s, err := openStack(c.Context, c.Path("config"))
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.cache.Get(c.Context, c.String("inmate"), time.Now())
	if err != nil {
		return err
	}
	return writeLookup(c.App.Writer, res, c.Bool("json"))
}

func runPurge(c *cli.Context) error {
	s, err := openStack(c.Context, c.Path("config"))
	if err != nil {
		return err
	}
	defer s.Close()

	before := s.cache.Len()
	removed := s.cache.Purge(c.Context, time.Now())

	_, err = fmt.Fprintf(c.App.Writer, "loaded:  %d\npurged:  %d\nkept:    %d\n",
		before, removed, s.cache.Len())
	return err
}

func runSearch(c *cli.Context) error {
	s, err := openStack(c.Context, c.Path("config"))
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.cache.Search(c.Context, c.String("first"), c.String("last"), time.Now())
	if err != nil {
		return err
	}
	return writeSearch(c.App.Writer, res, c.Bool("json"))
}

func runJanitor(c *cli.Context) error {
	s, err := openStack(c.Context, c.Path("config"))
	if err != nil {
		return err
	}
	defer s.Close()

	interval := s.cfg.Cache.PurgeInterval
	if interval <= 0 {
		return errors.New("cache.purge_interval must be positive to run the janitor")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("janitor: started", "interval", interval, "entries", s.cache.Len())
	s.cache.RunJanitor(ctx, interval)
	s.logger.Info("janitor: stopped", "entries", s.cache.Len())

	_, err = fmt.Fprintf(c.App.Writer, "kept:    %d\n", s.cache.Len())
	return err
}
