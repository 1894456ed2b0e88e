/*
Package chatflow is the editing core of a chatbot flow builder.

# Overview

A flow is a directed graph of message nodes. Users drag templates from a
palette onto a canvas, connect node handles with edges, type message text
in an inspector panel and save. chatflow enforces the rules behind those
gestures and leaves rendering to whatever front end drives it.

The rules are:
  - a source handle has at most one outgoing edge; connecting it again
    replaces the old edge
  - any edge can be removed by ID at any time
  - a flow with two or more nodes saves only if at most one node has no
    incoming edge

# Basic Usage

	editor := chatflow.NewEditor("welcome-flow",
	    chatflow.WithLogger(slog.Default()),
	    chatflow.WithSaver(saver),
	)

	editor.SetViewport(chatflow.Viewport{Zoom: 1})

	payload, _ := palette.Default().DragPayload(chatflow.TypeMessage)
	greet, _ := editor.Drop(ctx, payload, chatflow.Point{X: 100, Y: 80})
	ask, _ := editor.Drop(ctx, payload, chatflow.Point{X: 400, Y: 80})

	editor.Connect(ctx, chatflow.Connection{Source: greet.ID, Target: ask.ID})

	_ = editor.Select(greet.ID)
	_, _ = editor.EditText("Hi! How can I help?")

	if err := editor.Save(ctx); err != nil {
	    // editor.Notification() carries the message for the user
	}

# Validation

Validate and Roots work on plain Flow values and can be used without an
editor:

	err := chatflow.Validate(flow)
	var roots *chatflow.MultipleRootsError
	if errors.As(err, &roots) {
	    fmt.Println("entry points:", roots.Roots)
	}

Cycles, unreachable nodes and edges pointing at missing nodes are not
reported.

# Concurrency

Graph and Editor are safe for concurrent use. Editor serialises calls so
each gesture sees the result of the previous one.
*/
package chatflow
