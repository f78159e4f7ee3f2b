package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// printWarning reports a ledger warning without failing the command.
func printWarning(warning string) {
	if warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatFlag(v bool) string {
	if v {
		return "yes"
	}
	return "-"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func printTopics(items []domain.Topic) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			uintToString(item.ID),
			item.Name,
			strconv.FormatInt(item.InteractionCount, 10),
			uintToString(item.CreatorID),
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "NAME", "INTERACTIONS", "CREATOR", "CREATED_AT"}, rows)
}

func printTopic(item domain.Topic) {
	printKV([][2]string{
		{"id", uintToString(item.ID)},
		{"name", item.Name},
		{"interactions", strconv.FormatInt(item.InteractionCount, 10)},
		{"creator_id", uintToString(item.CreatorID)},
		{"created_at", formatTime(item.CreatedAt)},
	})
}

func printNodes(items []domain.Node) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		ref := "-"
		if item.ReferenceID != nil {
			ref = *item.ReferenceID
		}
		rows = append(rows, []string{
			uintToString(item.ID),
			uintToString(item.TopicID),
			item.DisplayName(),
			ref,
			formatCoord(item.X),
			formatCoord(item.Y),
		})
	}
	printTable([]string{"ID", "TOPIC_ID", "NAME", "REFERENCE", "X", "Y"}, rows)
}

func printNode(item domain.Node) {
	rows := [][2]string{
		{"id", uintToString(item.ID)},
		{"topic_id", uintToString(item.TopicID)},
		{"name", item.DisplayName()},
	}
	if item.Reference != nil {
		rows = append(rows,
			[2]string{"reference", item.Reference.ExternalID},
			[2]string{"reference_label", item.Reference.Label},
		)
	}
	if item.Description != "" {
		rows = append(rows, [2]string{"description", item.Description})
	}
	rows = append(rows,
		[2]string{"position", formatCoord(item.X) + "," + formatCoord(item.Y)},
		[2]string{"created_at", formatTime(item.CreatedAt)},
	)
	printKV(rows)
}

func printConnections(items []domain.Connection) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			uintToString(item.ID),
			uintToString(item.TopicID),
			uintToString(item.FirstNodeID),
			string(item.Direction),
			uintToString(item.SecondNodeID),
			item.Relation,
		})
	}
	printTable([]string{"ID", "TOPIC_ID", "FIRST", "DIRECTION", "SECOND", "RELATION"}, rows)
}

func printPosts(items []domain.Post) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			uintToString(item.ID),
			uintToString(item.TopicID),
			uintToString(item.UserID),
			item.Content,
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "TOPIC_ID", "USER_ID", "CONTENT", "CREATED_AT"}, rows)
}

func printInteractions(items []domain.InteractionRecord) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			uintToString(item.TopicID),
			item.TopicName,
			uintToString(item.UserID),
			formatFlag(item.CreatedTopic),
			formatFlag(item.AddedNode),
			formatFlag(item.Posted),
			formatTime(item.LastActionAt),
		})
	}
	printTable([]string{"TOPIC_ID", "TOPIC", "USER_ID", "CREATED", "NODES", "POSTED", "LAST_ACTION"}, rows)
}
