package conv

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

// ToDot describes the layer stack as a graphviz digraph: the input image,
// then one node per convolution and pooling stage, with trained layers
// filled.
func (n *Network) ToDot() (string, error) {
	if err := n.checkLive(); err != nil {
		return "", err
	}
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return "", errors.Wrap(err, "graph name")
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.Wrap(err, "graph direction")
	}

	c := n.conf
	node := func(name, label string, filled bool) error {
		attrs := map[string]string{
			"shape": "box",
			"label": strconv.Quote(label),
		}
		if filled {
			attrs["style"] = "filled"
		}
		return errors.Wrapf(g.AddNode("G", name, attrs), "node %s", name)
	}
	edge := func(src, dst string) error {
		return errors.Wrapf(g.AddEdge(src, dst, true, nil), "edge %s->%s", src, dst)
	}

	if err := node("input", fmt.Sprintf("input %dx%dx%d", c.InputsAcross, c.InputsDown, c.InputsDepth), false); err != nil {
		return "", err
	}
	prev := "input"
	for i := 0; i < c.Layers; i++ {
		w, _ := c.LayerWidth(i, false)
		h, _ := c.LayerHeight(i, false)
		pw, _ := c.LayerWidth(i, true)
		ph, _ := c.LayerHeight(i, true)
		ua, _ := c.UnitsAcross(i)
		ud, _ := c.UnitsDown(i)
		trained := n.trainingComplete || i < n.state.Layer

		convName, poolName := fmt.Sprintf("conv%d", i), fmt.Sprintf("pool%d", i)
		if err := node(convName, fmt.Sprintf("conv %d: %dx%dx%d, patch %dx%d", i, w, h, c.MaxFeatures, ua, ud), trained); err != nil {
			return "", err
		}
		if err := node(poolName, fmt.Sprintf("pool %d: %dx%dx%d", i, pw, ph, c.MaxFeatures), trained); err != nil {
			return "", err
		}
		if err := edge(prev, convName); err != nil {
			return "", err
		}
		if err := edge(convName, poolName); err != nil {
			return "", err
		}
		prev = poolName
	}
	return g.String(), nil
}
