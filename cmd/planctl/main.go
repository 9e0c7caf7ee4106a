// Command planctl is a thin CLI over a groupcore database, for scripting
// session setup and inspecting state without standing up the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	gc "groupcore"
)

var dsn string

func newCoordinator() (*gc.Coordinator, error) {
	store, err := gc.NewSQLStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	hub := gc.NewBroadcastHub()
	return gc.NewCoordinator(store, gc.SystemClock{}, gc.UUIDGenerator{}, gc.CryptoTokenGenerator{}, hub, "https://plan.example/s/"), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func main() {
	root := &cobra.Command{
		Use:   "planctl",
		Short: "Operate on a group coordination session store from the command line",
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "file:groupcore.db?cache=shared&_fk=1", "SQLite DSN for the session store")

	root.AddCommand(
		newCreateSessionCmd(),
		newJoinCmd(),
		newAddVenueCmd(),
		newVoteCmd(),
		newTallyCmd(),
		newAddItineraryCmd(),
		newCommentCmd(),
		newFinalizeCmd(),
		newArchiveCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCreateSessionCmd() *cobra.Command {
	var organizerID, name string
	var expiryHours int
	cmd := &cobra.Command{
		Use:   "create-session",
		Short: "Create a new session and print its invite token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			s, token, err := c.CreateSession(context.Background(), organizerID, name, expiryHours)
			if err != nil {
				return err
			}
			printJSON(map[string]any{"session": s, "invite_token": token})
			return nil
		},
	}
	cmd.Flags().StringVar(&organizerID, "organizer", "", "organizer participant id")
	cmd.Flags().StringVar(&name, "name", "", "session name")
	cmd.Flags().IntVar(&expiryHours, "expiry-hours", 72, "invite expiry in hours")
	_ = cmd.MarkFlagRequired("organizer")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newJoinCmd() *cobra.Command {
	var token, displayName, participantID string
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a session using its invite token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			p, err := c.JoinSession(context.Background(), token, displayName, participantID)
			if err != nil {
				return err
			}
			printJSON(p)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "invite token")
	cmd.Flags().StringVar(&displayName, "display-name", "", "participant display name")
	cmd.Flags().StringVar(&participantID, "participant-id", "", "participant id to assign")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("display-name")
	return cmd
}

func newAddVenueCmd() *cobra.Command {
	var sessionID, placeID, name, address, suggestedBy string
	cmd := &cobra.Command{
		Use:   "add-venue",
		Short: "Suggest a venue for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			venue, err := c.AddVenue(context.Background(), sessionID, placeID, name, address, suggestedBy, nil, nil, nil)
			if err != nil {
				return err
			}
			printJSON(venue)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().StringVar(&placeID, "place-id", "", "external place id")
	cmd.Flags().StringVar(&name, "name", "", "venue name")
	cmd.Flags().StringVar(&address, "address", "", "venue address")
	cmd.Flags().StringVar(&suggestedBy, "by", "", "suggesting participant id")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newVoteCmd() *cobra.Command {
	var sessionID, venueID, participantID, voteType string
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast (or recast) a vote on a venue",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			vote, err := c.CastVote(context.Background(), sessionID, venueID, participantID, gc.VoteType(voteType))
			if err != nil {
				return err
			}
			printJSON(vote)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().StringVar(&venueID, "venue", "", "venue id")
	cmd.Flags().StringVar(&participantID, "participant", "", "participant id")
	cmd.Flags().StringVar(&voteType, "type", string(gc.Upvote), "upvote|downvote|neutral")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("venue")
	_ = cmd.MarkFlagRequired("participant")
	return cmd
}

func newTallyCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Print the ranked venue tally for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			ranked, err := c.RankVenues(sessionID)
			if err != nil {
				return err
			}
			printJSON(ranked)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func newAddItineraryCmd() *cobra.Command {
	var sessionID, venueID, addedBy, scheduledTime string
	cmd := &cobra.Command{
		Use:   "add-itinerary",
		Short: "Schedule a venue into the itinerary",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := time.Parse(time.RFC3339, scheduledTime)
			if err != nil {
				return fmt.Errorf("parse --at: %w", err)
			}
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			item, err := c.AddToItinerary(context.Background(), sessionID, venueID, t, addedBy)
			if err != nil {
				return err
			}
			printJSON(item)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().StringVar(&venueID, "venue", "", "venue id")
	cmd.Flags().StringVar(&addedBy, "by", "", "participant id adding this item")
	cmd.Flags().StringVar(&scheduledTime, "at", "", "scheduled time, RFC3339")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("venue")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newCommentCmd() *cobra.Command {
	var sessionID, venueID, participantID, text string
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Append a comment to a venue",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			comment, err := c.AddComment(context.Background(), sessionID, venueID, participantID, text)
			if err != nil {
				return err
			}
			printJSON(comment)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().StringVar(&venueID, "venue", "", "venue id")
	cmd.Flags().StringVar(&participantID, "participant", "", "participant id")
	cmd.Flags().StringVar(&text, "text", "", "comment text")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("venue")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newFinalizeCmd() *cobra.Command {
	var sessionID, callerID string
	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Finalize a session and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			summary, err := c.FinalizeSession(context.Background(), sessionID, callerID)
			if err != nil {
				return err
			}
			printJSON(summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	cmd.Flags().StringVar(&callerID, "caller", "", "calling participant id (must be organizer)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}

func newArchiveCmd() *cobra.Command {
	var cutoffHours int
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive sessions inactive past the given cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCoordinator()
			if err != nil {
				return err
			}
			n, err := c.ArchiveInactive(context.Background(), time.Duration(cutoffHours)*time.Hour)
			if err != nil {
				return err
			}
			fmt.Println(strconv.Itoa(n) + " sessions archived")
			return nil
		},
	}
	cmd.Flags().IntVar(&cutoffHours, "cutoff-hours", 720, "archive sessions inactive for longer than this many hours")
	return cmd
}
