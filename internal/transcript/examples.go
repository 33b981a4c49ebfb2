package transcript

import (
	"slices"
	"strings"
)

var examples = map[string]string{
	"software_engineer": `
I'm a senior software engineer with 8 years of experience in Python and machine learning.
I'm particularly interested in natural language processing and computer vision.
I graduated from Stanford University with a Master's in Computer Science in 2015.
I'm currently working at Google where I'm proficient in cloud technologies and distributed systems.
I'm passionate about AI and enjoy working on open-source projects.
My expertise includes deep learning, neural networks, and big data processing.
I'm also skilled in Docker, Kubernetes, and microservices architecture.
`,
	"data_scientist": `
As a data scientist, I specialize in predictive modeling and statistical analysis.
I have extensive experience with R, Python, and SQL.
I'm particularly interested in healthcare analytics and bioinformatics.
I hold a PhD in Statistics from MIT and currently work at Pfizer.
My expertise includes machine learning, data visualization, and experimental design.
I'm passionate about using data to solve real-world healthcare problems.
I'm also skilled in TensorFlow, PyTorch, and scikit-learn.
`,
	"product_manager": `
I'm a product manager with a focus on AI and machine learning products.
I have a strong background in both technical and business aspects of product development.
I graduated from Harvard Business School and worked at Microsoft for 5 years.
I'm particularly interested in user experience and product strategy.
My expertise includes agile methodologies, product roadmapping, and market analysis.
I'm skilled in data analytics, user research, and product metrics.
I'm passionate about building products that make a real impact.
`,
}

// Example returns a canned transcript by id
func Example(id string) (string, bool) {
	t, ok := examples[id]
	return strings.TrimSpace(t), ok
}

// ExampleIDs lists the available example ids in sorted order
func ExampleIDs() []string {
	ids := make([]string, 0, len(examples))
	for id := range examples {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
