package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spyice/room-generator/internal/export"
)

func main() {
	inputFile := flag.String("input", "data/map.yaml", "Path to a map snapshot (.yaml or .json)")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	showLegend := flag.Bool("legend", true, "Show legend")
	showRooms := flag.Bool("rooms", false, "List every room with its position and size")
	flag.Parse()

	snap, err := export.Load(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading snapshot: %v\n", err)
		os.Exit(1)
	}

	var output strings.Builder
	renderSnapshot(&output, snap, *showRooms)
	if *showLegend {
		output.WriteString(getLegend())
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Map written to %s\n", *outputFile)
	} else {
		fmt.Print(output.String())
	}
}

func renderSnapshot(output *strings.Builder, snap *export.Snapshot, showRooms bool) {
	fmt.Fprintf(output, "Room Map (Seed: %d, Rooms: %d visible of %d, Connections: %d)\n",
		snap.Seed, snap.VisibleRooms(), len(snap.Rooms), len(snap.Connections))
	fmt.Fprintf(output, "Generated: %s\n", snap.SavedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(output, "Bounds: (%d,%d) %dx%d tiles\n",
		snap.Bounds.Anchor.X, snap.Bounds.Anchor.Y, snap.Bounds.Width, snap.Bounds.Height)
	output.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(snap.MainPath) > 0 {
		parts := make([]string, len(snap.MainPath))
		for i, id := range snap.MainPath {
			parts[i] = fmt.Sprint(id)
		}
		fmt.Fprintf(output, "Main path: %s\n", strings.Join(parts, " -> "))
	}

	if unreachable := snap.Unreachable(); len(unreachable) > 0 {
		output.WriteString("WARNING: Unreachable rooms detected!\n")
		for _, id := range unreachable {
			r, _ := snap.Room(id)
			fmt.Fprintf(output, "  - room %d (%s) at (%d,%d)\n", id, r.Type, r.Anchor.X, r.Anchor.Y)
		}
	} else {
		fmt.Fprintf(output, "All %d visible rooms are connected.\n", snap.VisibleRooms())
	}
	output.WriteString("\n")

	for _, line := range snap.Render() {
		output.WriteString(strings.TrimRight(line, " "))
		output.WriteString("\n")
	}
	output.WriteString("\n")

	if showRooms {
		renderRoomList(output, snap)
	}
}

func renderRoomList(output *strings.Builder, snap *export.Snapshot) {
	output.WriteString("Room Details:\n")

	rooms := append([]export.RoomData(nil), snap.Rooms...)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	degree := make(map[int]int)
	for _, c := range snap.Connections {
		degree[c.Room1]++
		degree[c.Room2]++
	}

	for _, r := range rooms {
		flags := []string{r.Type}
		if r.IsMain {
			flags = append(flags, "main")
		}
		if !r.Visible {
			flags = append(flags, "hidden")
		}
		fmt.Fprintf(output, "  %3d  (%d,%d) %dx%d  %s  connections: %d\n",
			r.ID, r.Anchor.X, r.Anchor.Y, r.Width, r.Height, strings.Join(flags, ","), degree[r.ID])
	}

	output.WriteString("\nConnections:\n")
	for _, c := range snap.Connections {
		fmt.Fprintf(output, "  %d -- %d  %s %s\n", c.Room1, c.Room2, c.Kind, c.Orientation)
	}
	output.WriteString("\n")
}

func getLegend() string {
	return fmt.Sprintf(`Legend:
  %c  Wall
  %c  Floor
     Empty space
  North is up; the top line is the highest y.
`, export.GlyphWall, export.GlyphGround)
}
