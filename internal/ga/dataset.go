package ga

var referenceDataset = [][]int{
	{5, 5, 15, 15, 2, 2, 7, 7, 17, 17},
	{1, 15, 15, 25, 25, 25, 12, 17, 22, 3},
	{10, 10, 10, 20, 20, 7, 2, 12, 12, 3},
	{1, 10, 15, 15, 2, 2, 7, 7, 12, 22},
	{5, 5, 20, 25, 20, 25, 12, 12, 17, 3},
	{10, 10, 20, 15, 25, 25, 2, 7, 22, 22},
	{5, 5, 15, 20, 20, 7, 7, 7, 12, 22},
	{10, 15, 15, 25, 20, 2, 2, 12, 17, 17},
	{10, 10, 20, 25, 25, 2, 7, 12, 12, 17},
	{5, 15, 20, 20, 2, 2, 2, 22, 22, 17},
}

// ReferenceDatasetDomain is the gene domain the reference dataset was drawn from.
const ReferenceDatasetDomain = 26

// ReferenceDataset returns the ten-row, ten-gene demonstration population.
func ReferenceDataset() [][]int {
	return TruncateDataset(referenceDataset, len(referenceDataset), len(referenceDataset[0]))
}

// TruncateDataset copies the first rows x length genes of a dataset. Rows or
// genes beyond what the dataset holds are not invented.
func TruncateDataset(dataset [][]int, rows, length int) [][]int {
	rows = min(rows, len(dataset))
	out := make([][]int, 0, rows)
	for _, row := range dataset[:rows] {
		out = append(out, append([]int(nil), row[:min(length, len(row))]...))
	}
	return out
}
