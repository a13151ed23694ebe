package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

const classifierSystemPrompt = `Eres un experto en análisis de datos financieros de restaurantes Little Caesars.
Analiza los datos y detecta qué tipo de información contienen.

Responde SOLO con JSON válido con esta estructura:
{
    "data_type": "ventas|gastos|inventario|nomina|estado_resultados|otro",
    "detected_fields": {
        "columna_original": {
            "mapped_to": "nombre_estandarizado",
            "type": "currency|number|text|date|percentage",
            "description": "descripción breve"
        }
    },
    "summary": "descripción de qué contiene este archivo",
    "recommended_category": "categoria sugerida para el vault"
}`

func buildClassifierUserPrompt(sample []domain.RawRow, columns []string, filename string) string {
	rows := make([]map[string]any, 0, len(sample))
	for _, row := range sample {
		rows = append(rows, row.Cells)
	}
	sampleJSON, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		sampleJSON = []byte("[]")
	}

	return fmt.Sprintf(`Archivo: %s
Columnas detectadas: %s

Muestra de datos:
%s

Analiza y mapea estos campos.`, filename, strings.Join(columns, ", "), sampleJSON)
}

const analysisSystemPrompt = `Eres Julia, experta en análisis financiero para restaurantes Little Caesars. Respondes en español de manera profesional.`

func buildAnalysisUserPrompt(analysisType, dataSummary string) string {
	if analysisType == domain.AnalysisTypePnL {
		return fmt.Sprintf(`Analiza este estado de resultados de Little Caesars:

%s

Proporciona:
1. Resumen ejecutivo
2. Análisis de ventas y costos
3. Márgenes y rentabilidad
4. Comparación con métricas esperadas del sector
5. Recomendaciones para mejorar la utilidad

Usa números en pesos mexicanos. Responde en español.`, dataSummary)
	}
	return fmt.Sprintf(`Analiza estos datos financieros de Little Caesars:

%s

Proporciona:
1. Resumen ejecutivo
2. Puntos clave detectados
3. Riesgos u oportunidades
4. Tendencias relevantes
5. Recomendaciones

Responde en español.`, dataSummary)
}

func buildChatSystemPrompt(dataContext string) string {
	return fmt.Sprintf(`Eres Julia, asistente experta en análisis financiero para Little Caesars México.

Tu personalidad:
- Profesional pero amigable
- Respondes siempre en español
- Das respuestas claras y accionables
- Formateas números en pesos mexicanos
- Cuando detectas problemas, sugieres soluciones

Datos disponibles:
%s

Si no tienes datos suficientes, sugiere amablemente que suban los documentos necesarios.
`, dataContext)
}
