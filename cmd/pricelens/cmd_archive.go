package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	archiveJSON bool
	archiveAll  bool
)

// archiveCmd manages exported documents
var archiveCmd = &cobra.Command{
	Use:     "archive",
	Aliases: []string{"downloads"},
	Short:   "List, download, share and delete exported PDFs",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived PDFs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

var archiveDownloadCmd = &cobra.Command{
	Use:   "download [id]",
	Short: "Save an archived PDF into the downloads directory",
	Args: func(cmd *cobra.Command, args []string) error {
		if archiveAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runArchiveDownload,
}

var archiveShareCmd = &cobra.Command{
	Use:   "share [id]",
	Short: "Hand an archived PDF to the configured share command",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveShare,
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an archived PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveDelete,
}

func init() {
	archiveListCmd.Flags().BoolVar(&archiveJSON, "json", false, "Print metadata as JSON")
	archiveDownloadCmd.Flags().BoolVar(&archiveAll, "all", false, "Download every archived PDF")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveDownloadCmd)
	archiveCmd.AddCommand(archiveShareCmd)
	archiveCmd.AddCommand(archiveDeleteCmd)
}

type artifactInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.manager.List()
	out := cmd.OutOrStdout()

	if archiveJSON {
		infos := make([]artifactInfo, len(list))
		for i, art := range list {
			infos[i] = artifactInfo{ID: art.ID, Name: art.Name, Date: art.Date}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "Noch keine PDFs gespeichert.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDATUM")
	for _, art := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", art.ID, art.Name, art.Date)
	}
	return tw.Flush()
}

func runArchiveDownload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var paths []string
	if archiveAll {
		paths, err = a.manager.DownloadAll(ctx)
	} else {
		var path string
		path, err = a.manager.Download(args[0])
		paths = []string{path}
	}
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

func runArchiveShare(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.manager.Share(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "PDF geteilt.")
	return nil
}

func runArchiveDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.store.Get(args[0]); err != nil {
		return err
	}
	if err := a.manager.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s gelöscht. %d PDFs verbleiben.\n", args[0], a.manager.Count())
	return nil
}
