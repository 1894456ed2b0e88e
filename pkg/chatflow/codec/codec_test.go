package codec_test

import (
	"testing"

	"github.com/randalmurphal/chatflow/pkg/chatflow"
	"github.com/randalmurphal/chatflow/pkg/chatflow/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlow() chatflow.Flow {
	return chatflow.Flow{
		Nodes: []chatflow.Node{
			{ID: "1", Type: chatflow.TypeMessage, Position: chatflow.Position{X: 10.5, Y: -3},
				Data: chatflow.NodeData{"text": "Hi there", "label": "Send Message"}},
			{ID: "2", Type: chatflow.TypeMessage, Position: chatflow.Position{X: 200, Y: 40},
				Data: chatflow.NodeData{"text": "Bye", "label": "Send Message"}},
		},
		Edges: []chatflow.Edge{{
			ID: "e1", Source: "1", SourceHandle: "a", Target: "2",
			MarkerEnd: chatflow.DefaultMarkerEnd,
			Style:     chatflow.DefaultEdgeStyle,
		}},
	}
}

func TestCodecs_PreserveFlow(t *testing.T) {
	for _, name := range []string{codec.NameJSON, codec.NameMsgPack} {
		for _, compress := range []bool{false, true} {
			c, err := codec.ByName(name, compress)
			require.NoError(t, err)

			t.Run(c.Name(), func(t *testing.T) {
				data, err := c.Encode(sampleFlow())
				require.NoError(t, err)

				var got chatflow.Flow
				require.NoError(t, c.Decode(data, &got))
				assert.Equal(t, sampleFlow(), got)
			})
		}
	}
}

func TestMsgPack_UsesJSONFieldNames(t *testing.T) {
	data, err := codec.MsgPack{}.Encode(chatflow.Edge{ID: "e1", Source: "a", Target: "b"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, codec.MsgPack{}.Decode(data, &m))
	assert.Contains(t, m, "source")
	assert.Contains(t, m, "markerEnd")
	assert.NotContains(t, m, "sourceHandle", "omitempty is honoured")
}

func TestByName(t *testing.T) {
	c, err := codec.ByName("", false)
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	c, err = codec.ByName("msgpack", true)
	require.NoError(t, err)
	assert.Equal(t, "msgpack+zstd", c.Name())

	_, err = codec.ByName("xml", false)
	assert.Error(t, err)
}

func TestCompressed_RejectsGarbage(t *testing.T) {
	c, err := codec.NewCompressed(codec.JSON{})
	require.NoError(t, err)
	defer c.Close()

	var f chatflow.Flow
	assert.Error(t, c.Decode([]byte("not zstd"), &f))
}
