package timeline

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts either a [x, y, z] sequence or an {x, y, z} mapping.
func (v *Vec3) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var xyz []float64
		if err := node.Decode(&xyz); err != nil {
			return err
		}
		if len(xyz) != 3 {
			return fmt.Errorf("%w: line %d: vector needs 3 components, got %d", ErrInvalidConfig, node.Line, len(xyz))
		}
		*v = V3(xyz[0], xyz[1], xyz[2])
		return nil
	}

	type plain Vec3
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = Vec3(p)
	return nil
}
