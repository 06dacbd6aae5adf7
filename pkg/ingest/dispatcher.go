package ingest

import "context"

// handlerFunc applies one validated update of a single kind.
type handlerFunc func(ctx context.Context, u Update) (Result, error)

// registerDefaultHandlers wires the handler for every supported update kind.
func (i *Ingestor) registerDefaultHandlers() {
	i.handlers = map[Kind]handlerFunc{
		KindConnection: i.handleConnection,
		KindMessage:    i.handleMessage,
		KindEdited:     i.handleEdited,
		KindDeleted:    i.handleDeleted,
	}
}
