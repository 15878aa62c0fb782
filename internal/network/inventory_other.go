//go:build !linux

package network

// tableInventory requires the Linux nf_tables netlink interface.
func (c *Collector) tableInventory() []TableInfo {
	return nil
}
