package launcher

import (
	"fmt"
	"io/ioutil"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/dvel-foundation/go-dvel/integration"
	"github.com/dvel-foundation/go-dvel/inter"
	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/trace"
)

var demoCommand = cli.Command{
	Name:  "demo",
	Usage: "Run a deterministic ledger scenario and print its commitments",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "events",
			Usage: "Number of events to produce",
			Value: 16,
		},
		cli.IntFlag{
			Name:  "authors",
			Usage: "Number of distinct authors",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "equivocate",
			Usage: "Make the last author equivocate halfway through",
		},
		cli.StringFlag{
			Name:  "trace.out",
			Usage: "Write the binary trace to the given file",
		},
	},
	Action: runDemo,
}

// runDemo drives a fixed round-robin scenario through an engine: authors
// extend the preferred tip in turn, optionally one author forks off genesis
// to trigger quarantine. Everything is derived from the loop counter, so the
// output is identical on every run.
func runDemo(ctx *cli.Context) error {
	nEvents := ctx.Int("events")
	nAuthors := ctx.Int("authors")
	if nEvents < 1 || nAuthors < 1 || nAuthors > 255 {
		return fmt.Errorf("invalid demo size: events=%d authors=%d", nEvents, nAuthors)
	}

	preset, err := integration.GetPresetByName(ctx.GlobalString("preset"))
	if err != nil {
		return err
	}
	en, err := integration.NewEngine(preset, 0)
	if err != nil {
		return err
	}
	defer en.Close()

	secrets := make([]authorpk.Secret, nAuthors)
	for i := range secrets {
		for j := range secrets[i] {
			secrets[i][j] = byte(i + 1)
		}
	}

	for i := 0; i < nEvents; i++ {
		tick := uint64(i + 1)
		sec := secrets[i%nAuthors]

		prev := hash.Zero
		if tip, _, ok := en.PreferredTip(tick); ok {
			prev = tip
		}
		if ctx.Bool("equivocate") && i == nEvents/2 {
			// fork off genesis instead of extending the tip
			prev = hash.Zero
			sec = secrets[nAuthors-1]
		}

		e := inter.NewEvent(prev, authorpk.FromSecret(sec), inter.Timestamp(tick), hash.Hash{byte(i)})
		inter.SignEvent(e, sec)

		h, err := en.Submit(e, tick)
		if err != nil {
			logrus.WithError(err).WithField("event", hexutil.Encode(h.Bytes())).Warn("event rejected")
			continue
		}
	}

	finalTick := uint64(nEvents + 1)
	cp := en.Checkpoint(inter.Timestamp(finalTick))

	fmt.Fprintf(ctx.App.Writer, "events accepted: %d\n", cp.EventCount)
	fmt.Fprintf(ctx.App.Writer, "tips:            %d\n", len(cp.Tips))
	fmt.Fprintf(ctx.App.Writer, "merkle root:     %s\n", hexutil.Encode(cp.Root.Bytes()))
	fmt.Fprintf(ctx.App.Writer, "checkpoint:      %s\n", hexutil.Encode(cp.Hash().Bytes()))

	if tip, score, ok := en.PreferredTip(finalTick); ok {
		fmt.Fprintf(ctx.App.Writer, "preferred tip:   %s (score %d)\n", hexutil.Encode(tip.Bytes()), score)
	}
	for i, sec := range secrets {
		author := authorpk.FromSecret(sec)
		fmt.Fprintf(ctx.App.Writer, "author %d weight: %d\n", i, en.Overlay().AuthorWeightFP(finalTick, author))
	}
	for _, proof := range en.Overlay().Proofs() {
		fmt.Fprintf(ctx.App.Writer, "equivocation by: %s\n", proof.Offender.String())
	}
	fmt.Fprintf(ctx.App.Writer, "trace rows:      %d\n", en.Recorder().Len())

	if out := ctx.String("trace.out"); out != "" {
		raw, err := trace.EncodeRows(en.Recorder().Rows())
		if err != nil {
			return err
		}
		if err := ioutil.WriteFile(out, raw, 0600); err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "trace written:   %s (%d bytes)\n", out, len(raw))
	}

	return nil
}
