package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"voxelflow.ai/internal/protocol"
)

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	os.Exit(doAdminRequest(http.MethodGet, *baseURL, "/admin/v1/state", nil, 5*time.Second))
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	os.Exit(doAdminRequest(http.MethodPost, *baseURL, "/admin/v1/snapshot", nil, 10*time.Second))
}

// commandCmd posts one COMMAND to a running server, e.g.
// admin command -cmd PLACE_FLUID -fluid LAVA -pos 0,10,0
func commandCmd(args []string) {
	fs := flag.NewFlagSet("command", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	name := fs.String("cmd", "", "command name (PLACE_BLOCK, PLACE_FLUID, DRAIN, SPAWN_ENTITY, MOVE_ENTITY, REMOVE_ENTITY)")
	id := fs.String("id", "", "command id (optional)")
	pos := fs.String("pos", "", "block position x,y,z")
	block := fs.String("block", "", "block id for PLACE_BLOCK")
	fluidName := fs.String("fluid", "", "fluid for PLACE_FLUID")
	kind := fs.String("kind", "", "entity kind for SPAWN_ENTITY")
	entityID := fs.String("entity", "", "entity id for MOVE_ENTITY/REMOVE_ENTITY")
	entityPos := fs.String("entity_pos", "", "entity position x,y,z (floats)")
	_ = fs.Parse(args)

	cmd, err := buildCommand(*name, *id, *pos, *block, *fluidName, *kind, *entityID, *entityPos)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad command:", err)
		os.Exit(2)
	}
	body, _ := json.Marshal(cmd)
	os.Exit(doAdminRequest(http.MethodPost, *baseURL, "/v1/command", body, 10*time.Second))
}

func buildCommand(name, id, pos, block, fluidName, kind, entityID, entityPos string) (protocol.CommandMsg, error) {
	c := protocol.CommandMsg{
		Type:            protocol.TypeCommand,
		ProtocolVersion: protocol.Version,
		ID:              strings.TrimSpace(id),
		Cmd:             strings.ToUpper(strings.TrimSpace(name)),
		Block:           strings.ToUpper(strings.TrimSpace(block)),
		Fluid:           strings.ToUpper(strings.TrimSpace(fluidName)),
		Kind:            strings.ToUpper(strings.TrimSpace(kind)),
		EntityID:        strings.TrimSpace(entityID),
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("admin_%d", time.Now().UnixNano())
	}
	if strings.TrimSpace(pos) != "" {
		p, err := parseVec3(pos)
		if err != nil {
			return c, fmt.Errorf("-pos: %w", err)
		}
		c.Pos = p
	}
	if strings.TrimSpace(entityPos) != "" {
		parts := strings.Split(entityPos, ",")
		if len(parts) != 3 {
			return c, fmt.Errorf("-entity_pos: expected x,y,z")
		}
		for i, s := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return c, fmt.Errorf("-entity_pos: %w", err)
			}
			c.EntityPos[i] = v
		}
	}
	if code, msg := c.Validate(); code != "" {
		return c, fmt.Errorf("%s: %s", code, msg)
	}
	return c, nil
}

// doAdminRequest prints the response body and returns the process exit code.
func doAdminRequest(method, baseURL, path string, body []byte, timeout time.Duration) int {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u, rd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		return 1
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cl := &http.Client{Timeout: timeout}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		return 1
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		return 1
	}
	return 0
}
