// driftshare pairs devices over an out-of-band payload and then moves
// content through a relay under topics both sides derive independently
// from the shared secret and the current time window.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"drift.share/config"
	"drift.share/internal/channel"
	"drift.share/internal/forge"
	"drift.share/internal/hwid"
	"drift.share/internal/models"
	"drift.share/internal/relay"
	"drift.share/internal/retrieve"
	"drift.share/internal/topic"
	"drift.share/internal/window"
)

const usage = `usage: driftshare [-config file] <command> [args]

commands:
  pair    [-name n] [-server url]   mint a pairing and print its payload
  add     [-name n] [payload]       consume a pairing payload (or stdin)
  list                              show live channels
  rename  <old> <new>               rename a channel
  remove  <name>                    delete a channel
  wipe                              delete all channels
  send    [-title t] <name> <text>  publish under the current window's topic
  fetch   <name>                    poll the currently-valid topics
`

func main() {
	logrus.SetOutput(os.Stderr)

	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if err := run(cfg, cmd, args); err != nil {
		logrus.WithError(err).Fatal(cmd + " failed")
	}
}

func run(cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "pair":
		return cmdPair(cfg, args)
	case "add":
		return cmdAdd(cfg, args)
	case "list":
		return cmdList(cfg)
	case "rename":
		return cmdRename(cfg, args)
	case "remove":
		return cmdRemove(cfg, args)
	case "wipe":
		return cmdWipe(cfg)
	case "send":
		return cmdSend(cfg, args)
	case "fetch":
		return cmdFetch(cfg, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// openStore opens the channel vault, sealed to this machine's hardware
// fingerprint when sealing is enabled and enough identifiers are
// available.
func openStore(cfg *config.Config) (*channel.Store, error) {
	var key []byte
	if cfg.Channels.Seal {
		fp, err := hwid.Fingerprint(hwid.Collect())
		if err != nil {
			logrus.Warn("too few hardware identifiers, vault stays unsealed")
		} else {
			key = channel.SealingKey(fp)
		}
	}
	return channel.Open(cfg.Channels.VaultPath, key)
}

func cmdPair(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("pair", flag.ExitOnError)
	name := fs.String("name", "", "channel name (generated if empty)")
	server := fs.String("server", cfg.Channels.DefaultServer, "relay base URL")
	days := fs.Int("days", cfg.Channels.ExpirationDays, "pairing lifetime in days")
	windowSeconds := fs.Int64("window", cfg.Channels.WindowSeconds, "topic rotation period in seconds")
	fs.Parse(args)

	fp, err := hwid.Fingerprint(hwid.Collect())
	if err != nil {
		return err
	}

	pairing, err := forge.New(fp, forge.Options{
		ExpirationDays: *days,
		WindowSeconds:  *windowSeconds,
		Server:         *server,
	})
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	ch, err := st.Add(pairing, *name)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(pairing)
	if err != nil {
		return err
	}

	logrus.WithField("channel", ch.Name).Info("pairing created")
	fmt.Println(string(payload))
	return nil
}

func cmdAdd(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "channel name (generated if empty)")
	fs.Parse(args)

	var raw []byte
	if fs.NArg() > 0 {
		raw = []byte(fs.Arg(0))
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		raw = data
	}

	pairing, err := models.ParsePairing(raw)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	ch, err := st.Add(pairing, *name)
	if err != nil {
		return err
	}

	fmt.Printf("added channel %q (expires %s)\n", ch.Name, formatExpiry(ch.ExpiresAt))
	return nil
}

func cmdList(cfg *config.Config) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	channels, err := st.Channels()
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		fmt.Println("no channels")
		return nil
	}
	for _, ch := range channels {
		fmt.Printf("%-24s %s  rotates %s  expires %s\n",
			ch.Name, ch.Server,
			(time.Duration(ch.WindowSeconds) * time.Second).String(),
			formatExpiry(ch.ExpiresAt))
	}
	return nil
}

func cmdRename(cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("rename needs <old> <new>")
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	ok, err := st.Rename(args[0], args[1])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no channel %q, or %q is taken", args[0], args[1])
	}
	fmt.Printf("renamed %q to %q\n", args[0], args[1])
	return nil
}

func cmdRemove(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("remove needs <name>")
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	ok, err := st.Remove(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no channel %q", args[0])
	}
	fmt.Printf("removed %q\n", args[0])
	return nil
}

func cmdWipe(cfg *config.Config) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if err := st.Clear(); err != nil {
		return err
	}
	fmt.Println("all channels removed")
	return nil
}

func cmdSend(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	title := fs.String("title", "", "message title")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("send needs <name> <text>")
	}
	name := fs.Arg(0)
	body := strings.Join(fs.Args()[1:], " ")

	ch, err := findChannel(cfg, name)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	t, err := topic.Derive(ch.Secret, window.Index(ch.WindowSeconds, now), cfg.Fetch.TopicLength)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Fetch.Timeout)
	defer cancel()

	client := relay.NewClient(cfg.Fetch.Timeout)
	if err := client.Publish(ctx, ch.Server, t, body, *title); err != nil {
		return err
	}

	fmt.Printf("sent to %q\n", ch.Name)
	return nil
}

func cmdFetch(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("fetch needs <name>")
	}

	ch, err := findChannel(cfg, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Fetch.Timeout)
	defer cancel()

	client := relay.NewClient(cfg.Fetch.Timeout)
	msgs, err := retrieve.Fetch(ctx, client, ch, time.Now().UnixMilli(), cfg.Fetch.Since, cfg.Fetch.TopicLength)
	if err != nil {
		return err
	}

	if len(msgs) == 0 {
		fmt.Println("no messages found")
		return nil
	}
	for _, m := range msgs {
		ts := time.Unix(m.Time, 0).Format(time.RFC3339)
		if m.Title != "" {
			fmt.Printf("%s  [%s] %s\n", ts, m.Title, m.Message)
		} else {
			fmt.Printf("%s  %s\n", ts, m.Message)
		}
		if m.Attachment != nil {
			fmt.Printf("    attachment: %s\n", m.Attachment.URL)
		}
	}
	return nil
}

func findChannel(cfg *config.Config, name string) (channel.Channel, error) {
	st, err := openStore(cfg)
	if err != nil {
		return channel.Channel{}, err
	}
	channels, err := st.Channels()
	if err != nil {
		return channel.Channel{}, err
	}
	for _, ch := range channels {
		if ch.Name == name {
			return ch, nil
		}
	}
	return channel.Channel{}, fmt.Errorf("no channel %q", name)
}

func formatExpiry(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02")
}
